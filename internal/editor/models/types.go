package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// ============================================================
// Geometry primitives
// ============================================================

type ID = string

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Orb переводит точку в координату кольца полигона.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// ============================================================
// Graph
// ============================================================

type Edge struct {
	Dist float64 `json:"dist"`
}

type Node struct {
	ID        ID          `json:"id"`
	Pos       Point       `json:"pos"`
	RoomID    *ID         `json:"roomId"`
	Adjacency map[ID]Edge `json:"adjacency"`
}

type Graph map[ID]Node

// HasRoom сообщает, принадлежит ли узел комнате roomID.
func (n Node) HasRoom(roomID ID) bool {
	return n.RoomID != nil && *n.RoomID == roomID
}

// ============================================================
// Rooms
// ============================================================

const PolygonType = "Polygon"

// Polygon хранится в форме GeoJSON: кольцо 0 внешнее, остальные отверстия.
type Polygon struct {
	Type        string      `json:"type"`
	Coordinates orb.Polygon `json:"coordinates"`
}

type RoomInfo struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	DisplayAlias  string   `json:"displayAlias"`
	Aliases       []string `json:"aliases"`
	LabelPosition Point    `json:"labelPosition"`
	Polygon       Polygon  `json:"polygon"`
}

type Rooms map[ID]RoomInfo

// ============================================================
// Document
// ============================================================

// Document патчится историей правок; пути начинаются с "graph" или "rooms".
type Document struct {
	Graph Graph `json:"graph"`
	Rooms Rooms `json:"rooms"`
}

const (
	RootGraph = "graph"
	RootRooms = "rooms"
)

// Clone returns a deep copy through the JSON form, so nothing is shared with v.
func Clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func NewDocument() Document {
	return Document{Graph: Graph{}, Rooms: Rooms{}}
}

// Normalize заменяет nil-коллекции пустыми, чтобы пути вида rooms/<id> всегда разрешались.
func (d *Document) Normalize() {
	if d.Graph == nil {
		d.Graph = Graph{}
	}
	if d.Rooms == nil {
		d.Rooms = Rooms{}
	}
	for id, n := range d.Graph {
		if n.Adjacency == nil {
			n.Adjacency = map[ID]Edge{}
			d.Graph[id] = n
		}
	}
	for id, r := range d.Rooms {
		changed := false
		if r.Aliases == nil {
			r.Aliases = []string{}
			changed = true
		}
		if r.Polygon.Type == "" {
			r.Polygon.Type = PolygonType
			changed = true
		}
		if r.Polygon.Coordinates == nil {
			r.Polygon.Coordinates = orb.Polygon{orb.Ring{}}
			changed = true
		}
		if changed {
			d.Rooms[id] = r
		}
	}
}

// EmptyPolygon is the shape of a room without a drawn outline.
func EmptyPolygon() Polygon {
	return Polygon{Type: PolygonType, Coordinates: orb.Polygon{orb.Ring{}}}
}

// StrPtr возвращает указатель на копию s.
func StrPtr(s string) *string {
	return &s
}
