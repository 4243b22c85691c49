package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplan-editor/internal/editor/models"
)

func square() models.Polygon {
	return models.Polygon{
		Type:        models.PolygonType,
		Coordinates: orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
	}
}

func TestDistancePointToSegment(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b orb.Point
		want    float64
	}{
		{"perpendicular", orb.Point{5, 3}, orb.Point{0, 0}, orb.Point{10, 0}, 3},
		{"clamped to a", orb.Point{-3, 4}, orb.Point{0, 0}, orb.Point{10, 0}, 5},
		{"clamped to b", orb.Point{13, 4}, orb.Point{0, 0}, orb.Point{10, 0}, 5},
		{"on segment", orb.Point{4, 0}, orb.Point{0, 0}, orb.Point{10, 0}, 0},
		{"degenerate", orb.Point{3, 4}, orb.Point{0, 0}, orb.Point{0, 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistancePointToSegment(tt.p, tt.a, tt.b), 1e-9)
		})
	}
}

func TestDegenerateSegmentMatchesEuclidean(t *testing.T) {
	a := orb.Point{2.5, -1}
	for _, p := range []orb.Point{{0, 0}, {7, 3}, {-4, 11}, {2.5, -1}} {
		want := math.Hypot(p[0]-a[0], p[1]-a[1])
		assert.InDelta(t, want, DistancePointToSegment(p, a, a), 1e-9)
	}
}

func TestAddThenDeleteHoleRestoresRingCount(t *testing.T) {
	poly := square()

	withHole, active := AddHole(poly)
	assert.Len(t, withHole.Coordinates, 2)
	assert.Equal(t, 1, active)
	assert.Len(t, poly.Coordinates, 1, "input must not be mutated")

	restored, active, err := DeleteHole(withHole, active)
	require.NoError(t, err)
	assert.Equal(t, 0, active)
	assert.Equal(t, poly, restored)
}

func TestDeleteHole(t *testing.T) {
	poly := square()
	poly, _ = AddHole(poly)
	poly, _ = AddHole(poly)

	_, _, err := DeleteHole(poly, 0)
	assert.ErrorIs(t, err, ErrExteriorRing)

	_, _, err = DeleteHole(poly, 3)
	assert.ErrorIs(t, err, ErrRingIndex)

	out, active, err := DeleteHole(poly, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
	assert.Len(t, out.Coordinates, 2)
	assert.Len(t, poly.Coordinates, 3)
}

func TestInsertVertex(t *testing.T) {
	t.Run("nearest edge", func(t *testing.T) {
		out, err := InsertVertex(square(), 0, orb.Point{5, -1})
		require.NoError(t, err)
		assert.Equal(t, orb.Ring{{0, 0}, {5, -1}, {10, 0}, {10, 10}, {0, 10}}, out.Coordinates[0])
	})

	t.Run("closing edge", func(t *testing.T) {
		out, err := InsertVertex(square(), 0, orb.Point{-1, 5})
		require.NoError(t, err)
		assert.Equal(t, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {-1, 5}}, out.Coordinates[0])
	})

	t.Run("empty hole", func(t *testing.T) {
		poly, active := AddHole(square())
		out, err := InsertVertex(poly, active, orb.Point{3, 3})
		require.NoError(t, err)
		assert.Equal(t, orb.Ring{{3, 3}}, out.Coordinates[active])
		assert.Empty(t, poly.Coordinates[active])
	})

	t.Run("bad ring", func(t *testing.T) {
		_, err := InsertVertex(square(), 4, orb.Point{3, 3})
		assert.ErrorIs(t, err, ErrRingIndex)
	})
}

func TestDeleteVertex(t *testing.T) {
	poly := square()

	out, err := DeleteVertex(poly, 0, orb.Point{9, 11})
	require.NoError(t, err)
	assert.Equal(t, orb.Ring{{0, 0}, {10, 0}, {0, 10}}, out.Coordinates[0])
	assert.Len(t, poly.Coordinates[0], 4)

	_, err = DeleteVertex(ClearPolygon(), 0, orb.Point{0, 0})
	assert.ErrorIs(t, err, ErrEmptyRing)
}

func TestClearPolygon(t *testing.T) {
	poly := ClearPolygon()
	assert.Equal(t, models.PolygonType, poly.Type)
	require.Len(t, poly.Coordinates, 1)
	assert.Empty(t, poly.Coordinates[0])
}
