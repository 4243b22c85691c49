package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"floorplan-editor/internal/editor/models"
)

var ErrSimplifyFailed = errors.New("polygon simplification failed")

// Simplifier — внешний сервис упрощения. На выходе полигон с тем же числом колец.
type Simplifier interface {
	Simplify(ctx context.Context, poly models.Polygon) (models.Polygon, error)
}

// SimplifyPolygon вызывает сервис и проверяет контракт ответа: число колец то же,
// ни одно кольцо не стало длиннее.
// Любая ошибка приводится к ErrSimplifyFailed; входной полигон не меняется.
func SimplifyPolygon(ctx context.Context, s Simplifier, poly models.Polygon) (models.Polygon, error) {
	out, err := s.Simplify(ctx, clonePolygon(poly))
	if err != nil {
		if errors.Is(err, ErrSimplifyFailed) {
			return poly, err
		}
		return poly, fmt.Errorf("%w: %w", ErrSimplifyFailed, err)
	}
	if len(out.Coordinates) != len(poly.Coordinates) {
		return poly, fmt.Errorf("%w: ring count changed from %d to %d",
			ErrSimplifyFailed, len(poly.Coordinates), len(out.Coordinates))
	}
	for i := range out.Coordinates {
		if len(out.Coordinates[i]) > len(poly.Coordinates[i]) {
			return poly, fmt.Errorf("%w: ring %d grew from %d to %d vertices",
				ErrSimplifyFailed, i, len(poly.Coordinates[i]), len(out.Coordinates[i]))
		}
	}
	if out.Type == "" {
		out.Type = models.PolygonType
	}
	return out, nil
}

// ============================================================
// HTTP client
// ============================================================

type simplifyPayload struct {
	Polygon models.Polygon `json:"polygon"`
}

// HTTPSimplifier ходит в сервис упрощения: POST {BaseURL}/simplify-polygon.
type HTTPSimplifier struct {
	BaseURL string
	Client  *http.Client
	log     *slog.Logger
}

func NewHTTPSimplifier(baseURL string, timeout time.Duration) *HTTPSimplifier {
	return &HTTPSimplifier{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		log:     slog.Default().With("component", "simplifier-client"),
	}
}

func (h *HTTPSimplifier) Simplify(ctx context.Context, poly models.Polygon) (models.Polygon, error) {
	body, err := json.Marshal(simplifyPayload{Polygon: poly})
	if err != nil {
		return poly, fmt.Errorf("%w: encode request: %w", ErrSimplifyFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/simplify-polygon", bytes.NewReader(body))
	if err != nil {
		return poly, fmt.Errorf("%w: build request: %w", ErrSimplifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		h.logger().Warn("simplifier unreachable", "url", h.BaseURL, "error", err)
		return poly, fmt.Errorf("%w: %w", ErrSimplifyFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return poly, fmt.Errorf("%w: read response: %w", ErrSimplifyFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		h.logger().Warn("simplifier rejected polygon", "status", resp.StatusCode, "error", apiErr.Error)
		return poly, fmt.Errorf("%w: status %d: %s", ErrSimplifyFailed, resp.StatusCode, apiErr.Error)
	}

	var out simplifyPayload
	if err := json.Unmarshal(data, &out); err != nil {
		return poly, fmt.Errorf("%w: decode response: %w", ErrSimplifyFailed, err)
	}
	return out.Polygon, nil
}

func (h *HTTPSimplifier) logger() *slog.Logger {
	if h.log == nil {
		return slog.Default()
	}
	return h.log
}
