package simplifier

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplan-editor/internal/editor/models"
)

// noisySquare: квадрат 10x10 с почти коллинеарными точками на сторонах и дыркой.
func noisySquare() models.Polygon {
	return models.Polygon{
		Type: models.PolygonType,
		Coordinates: orb.Polygon{
			{{0, 0}, {5, 0.01}, {10, 0}, {10, 5}, {10.02, 7}, {10, 10}, {5, 10}, {0, 10}, {0, 0}},
			{{2, 2}, {3, 2}, {3, 3}, {2, 3}, {2, 2}},
			{},
		},
	}
}

func TestSimplifyKeepsRingCount(t *testing.T) {
	in := noisySquare()
	out := Simplify(in, 0.5)

	require.Len(t, out.Coordinates, 3)
	assert.Equal(t, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}, out.Coordinates[0])
	assert.Equal(t, in.Coordinates[1], out.Coordinates[1])
	assert.Empty(t, out.Coordinates[2])
	assert.Less(t, VertexCount(out), VertexCount(in))

	assert.Len(t, in.Coordinates[0], 9, "input must not be mutated")
}

func TestSimplifyDegenerateRingFallsBack(t *testing.T) {
	in := models.Polygon{Coordinates: orb.Polygon{{{0, 0}, {1, 0.001}, {2, 0}, {3, 0.001}}}}
	out := Simplify(in, 1)
	assert.Equal(t, in.Coordinates[0], out.Coordinates[0])
	assert.Equal(t, models.PolygonType, out.Type)
}

func TestSimplifyZeroTolerance(t *testing.T) {
	in := noisySquare()
	assert.Equal(t, in.Coordinates, Simplify(in, 0).Coordinates)
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/simplify-polygon", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func TestSimplifyHandler(t *testing.T) {
	app := fiber.New()
	app.Post("/simplify-polygon", NewHandler(0.5).SimplifyPolygon)

	payload, err := json.Marshal(fiber.Map{"polygon": noisySquare()})
	require.NoError(t, err)

	status, body := post(t, app, string(payload))
	require.Equal(t, http.StatusOK, status)

	var poly models.Polygon
	require.NoError(t, json.Unmarshal(body["polygon"], &poly))
	assert.Len(t, poly.Coordinates, 3)
	assert.Len(t, poly.Coordinates[0], 5)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty", "", http.StatusBadRequest},
		{"not json", "{", http.StatusBadRequest},
		{"no polygon", `{"tolerance": 1}`, http.StatusBadRequest},
		{"negative tolerance", `{"polygon": {"type": "Polygon", "coordinates": [[]]}, "tolerance": -1}`, http.StatusBadRequest},
		{"wrong type", `{"polygon": {"type": "LineString", "coordinates": [[]]}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, app, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, "error")
		})
	}
}
