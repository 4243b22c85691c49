package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"floorplan-editor/internal/editor/models"
)

var (
	ErrExteriorRing = errors.New("exterior ring cannot be deleted")
	ErrRingIndex    = errors.New("ring index out of range")
	ErrEmptyRing    = errors.New("ring has no vertices")
)

// ============================================================
// Distance
// ============================================================

// DistancePointToSegment возвращает расстояние от p до ближайшей точки отрезка [a,b].
// Для вырожденного отрезка (a == b) это расстояние до a.
func DistancePointToSegment(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return planar.Distance(p, a)
	}

	// Проекция точки на отрезок
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return planar.Distance(p, orb.Point{a[0] + t*dx, a[1] + t*dy})
}

// ============================================================
// Rings
// ============================================================

// AddHole добавляет пустое кольцо; новые точки пойдут в него.
// Возвращает индекс нового активного кольца.
func AddHole(poly models.Polygon) (models.Polygon, int) {
	out := clonePolygon(poly)
	out.Coordinates = append(out.Coordinates, orb.Ring{})
	return out, len(out.Coordinates) - 1
}

// DeleteHole удаляет отверстие ringIndex. Внешнее кольцо (0) удалить нельзя.
// Возвращает активный индекс, уменьшенный на единицу, но не меньше нуля.
func DeleteHole(poly models.Polygon, ringIndex int) (models.Polygon, int, error) {
	if ringIndex == 0 {
		return poly, 0, ErrExteriorRing
	}
	if ringIndex < 0 || ringIndex >= len(poly.Coordinates) {
		return poly, 0, fmt.Errorf("%w: %d", ErrRingIndex, ringIndex)
	}

	out := clonePolygon(poly)
	out.Coordinates = append(out.Coordinates[:ringIndex], out.Coordinates[ringIndex+1:]...)
	return out, max(ringIndex-1, 0), nil
}

// ============================================================
// Vertices
// ============================================================

// InsertVertex вставляет p в кольцо на ближайшее ребро, включая замыкающее.
func InsertVertex(poly models.Polygon, ring int, p orb.Point) (models.Polygon, error) {
	if ring < 0 || ring >= len(poly.Coordinates) {
		return poly, fmt.Errorf("%w: %d", ErrRingIndex, ring)
	}

	out := clonePolygon(poly)
	r := out.Coordinates[ring]
	if len(r) == 0 {
		out.Coordinates[ring] = orb.Ring{p}
		return out, nil
	}

	at := nearestEdge(r, p) + 1
	next := make(orb.Ring, 0, len(r)+1)
	next = append(next, r[:at]...)
	next = append(next, p)
	out.Coordinates[ring] = append(next, r[at:]...)
	return out, nil
}

// DeleteVertex удаляет вершину кольца, ближайшую к p.
func DeleteVertex(poly models.Polygon, ring int, p orb.Point) (models.Polygon, error) {
	if ring < 0 || ring >= len(poly.Coordinates) {
		return poly, fmt.Errorf("%w: %d", ErrRingIndex, ring)
	}
	if len(poly.Coordinates[ring]) == 0 {
		return poly, ErrEmptyRing
	}

	out := clonePolygon(poly)
	r := out.Coordinates[ring]
	idx := nearestVertex(r, p)
	out.Coordinates[ring] = append(r[:idx], r[idx+1:]...)
	return out, nil
}

// ClearPolygon: форма комнаты без контура.
func ClearPolygon() models.Polygon {
	return models.EmptyPolygon()
}

// nearestEdge возвращает i для ребра r[i] -> r[i+1]; последнее ребро замыкает кольцо.
func nearestEdge(r orb.Ring, p orb.Point) int {
	best, bestDist := 0, math.Inf(1)
	for i := range r {
		d := DistancePointToSegment(p, r[i], r[(i+1)%len(r)])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func nearestVertex(r orb.Ring, p orb.Point) int {
	best, bestDist := 0, math.Inf(1)
	for i, v := range r {
		d := planar.Distance(p, v)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func clonePolygon(poly models.Polygon) models.Polygon {
	out := models.Polygon{Type: poly.Type, Coordinates: poly.Coordinates.Clone()}
	if out.Type == "" {
		out.Type = models.PolygonType
	}
	if out.Coordinates == nil {
		out.Coordinates = orb.Polygon{}
	}
	return out
}
