package simplifier

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Douglas-Peucker
// ============================================================

// Simplify упрощает каждое кольцо отдельно. Число колец не меняется; кольцо,
// которое схлопнулось бы меньше чем в 3 точки, остаётся как было.
func Simplify(poly models.Polygon, tolerance float64) models.Polygon {
	out := models.Polygon{
		Type:        models.PolygonType,
		Coordinates: make(orb.Polygon, len(poly.Coordinates)),
	}

	for i, ring := range poly.Coordinates {
		if tolerance <= 0 || len(ring) < 4 {
			out.Coordinates[i] = ring.Clone()
			if out.Coordinates[i] == nil {
				out.Coordinates[i] = orb.Ring{}
			}
			continue
		}

		ls := orb.LineString(ring)
		s := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone())
		result, ok := s.(orb.LineString)
		if !ok || len(result) < 3 {
			out.Coordinates[i] = ring.Clone()
			continue
		}
		out.Coordinates[i] = orb.Ring(result)
	}

	return out
}

// VertexCount: суммарное число вершин по всем кольцам.
func VertexCount(poly models.Polygon) int {
	n := 0
	for _, ring := range poly.Coordinates {
		n += len(ring)
	}
	return n
}
