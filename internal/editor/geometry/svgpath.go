package geometry

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"floorplan-editor/internal/editor/models"
)

var ErrBadPath = errors.New("invalid svg path")

var pathCommand = regexp.MustCompile(`([MmLlHhVvZzCcSsQqTtAa])([^MmLlHhVvZzCcSsQqTtAa]*)`)

// ============================================================
// SVG Path -> Polygon
// ============================================================

// PolygonFromPath строит контур комнаты из атрибута d элемента <path> плана.
// Каждый подпуть (M/m) даёт отдельное кольцо: первое внешнее, остальные отверстия.
// Замыкание кольца неявное, как у остальных функций пакета.
// Поддерживаются только прямые отрезки: M L H V Z.
func PolygonFromPath(d string) (models.Polygon, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return models.Polygon{}, fmt.Errorf("%w: empty path", ErrBadPath)
	}

	var (
		rings    orb.Polygon
		ring     orb.Ring
		cur      orb.Point
		start    orb.Point
		consumed int
	)

	// кольца хранятся незамкнутыми, как их строит InsertVertex: повтор первой точки в конце отбрасывается
	flush := func() {
		if n := len(ring); n > 1 && ring[n-1] == ring[0] {
			ring = ring[:n-1]
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
		ring = nil
	}

	for _, m := range pathCommand.FindAllStringSubmatchIndex(d, -1) {
		if strings.TrimSpace(d[consumed:m[0]]) != "" {
			return models.Polygon{}, fmt.Errorf("%w: unexpected %q", ErrBadPath, d[consumed:m[0]])
		}
		consumed = m[1]

		cmd := d[m[2]:m[3]]
		args, err := parseCoords(d[m[4]:m[5]])
		if err != nil {
			return models.Polygon{}, err
		}

		switch cmd {
		case "M", "m":
			if len(args) < 2 || len(args)%2 != 0 {
				return models.Polygon{}, fmt.Errorf("%w: %s needs coordinate pairs", ErrBadPath, cmd)
			}
			flush()
			for i := 0; i < len(args); i += 2 {
				cur = step(cur, cmd == "m", args[i], args[i+1])
				if i == 0 {
					start = cur
				}
				ring = append(ring, cur)
			}

		case "L", "l":
			if len(args) < 2 || len(args)%2 != 0 {
				return models.Polygon{}, fmt.Errorf("%w: %s needs coordinate pairs", ErrBadPath, cmd)
			}
			for i := 0; i < len(args); i += 2 {
				cur = step(cur, cmd == "l", args[i], args[i+1])
				ring = append(ring, cur)
			}

		case "H", "h", "V", "v":
			if len(args) == 0 {
				return models.Polygon{}, fmt.Errorf("%w: %s needs a coordinate", ErrBadPath, cmd)
			}
			for _, v := range args {
				switch cmd {
				case "H":
					cur[0] = v
				case "h":
					cur[0] += v
				case "V":
					cur[1] = v
				case "v":
					cur[1] += v
				}
				ring = append(ring, cur)
			}

		case "Z", "z":
			// после Z текущая точка возвращается в начало подпути
			cur = start
			flush()

		default:
			return models.Polygon{}, fmt.Errorf("%w: curve command %s is not supported", ErrBadPath, cmd)
		}
	}
	if strings.TrimSpace(d[consumed:]) != "" {
		return models.Polygon{}, fmt.Errorf("%w: unexpected %q", ErrBadPath, d[consumed:])
	}
	flush()

	if len(rings) == 0 {
		return models.Polygon{}, fmt.Errorf("%w: no vertices", ErrBadPath)
	}
	return models.Polygon{Type: models.PolygonType, Coordinates: rings}, nil
}

func step(cur orb.Point, relative bool, x, y float64) orb.Point {
	if relative {
		return orb.Point{cur[0] + x, cur[1] + y}
	}
	return orb.Point{x, y}
}

// parseCoords разбирает числа, разделённые запятыми и пробелами.
func parseCoords(s string) ([]float64, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))

	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrBadPath, part)
		}
		coords = append(coords, val)
	}
	return coords, nil
}
