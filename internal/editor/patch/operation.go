package patch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================
// Operation
// ============================================================

// Kind: вид структурной правки, семантика как в RFC 6902.
type Kind uint8

const (
	Add Kind = iota + 1
	Remove
	Replace
	Move
	Test
)

var kindNames = map[Kind]string{
	Add:     "add",
	Remove:  "remove",
	Replace: "replace",
	Move:    "move",
	Test:    "test",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown op kind %d", uint8(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown op %q", string(text))
}

// Path: последовательность ключей в документе; индексы массивов записываются числами,
// "-" на add означает конец массива.
type Path []string

// String возвращает путь в виде JSON Pointer.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		seg = strings.ReplaceAll(seg, "~", "~0")
		b.WriteString(strings.ReplaceAll(seg, "/", "~1"))
	}
	return b.String()
}

// ParsePointer разбирает JSON Pointer ("/n1/roomId") в Path.
func ParsePointer(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("pointer %q must start with /", s)
	}
	parts := strings.Split(s[1:], "/")
	path := make(Path, len(parts))
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		path[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return path, nil
}

// UnmarshalJSON принимает как массив ключей, так и строку JSON Pointer.
func (p *Path) UnmarshalJSON(data []byte) error {
	var pointer string
	if err := json.Unmarshal(data, &pointer); err == nil {
		parsed, err := ParsePointer(pointer)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("path must be a pointer string or key array: %w", err)
	}
	*p = keys
	return nil
}

func (p Path) parent() (Path, string) {
	return p[:len(p)-1], p[len(p)-1]
}

func (p Path) clone() Path {
	return append(Path{}, p...)
}

func (p Path) hasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Join собирает путь из корня и ключей.
func Join(root string, keys ...string) Path {
	return append(Path{root}, keys...)
}

type Operation struct {
	Kind  Kind `json:"op"`
	Path  Path `json:"path"`
	From  Path `json:"from,omitempty"`
	Value any  `json:"value,omitempty"`
}

func (o Operation) String() string {
	if o.Kind == Move {
		return fmt.Sprintf("%s %s -> %s", o.Kind, o.From, o.Path)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Path)
}

// MarshalJSON keeps "value" for replace/add/test even when it is null.
func (o Operation) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind  Kind `json:"op"`
		Path  Path `json:"path"`
		From  Path `json:"from,omitempty"`
		Value *any `json:"value,omitempty"`
	}
	w := wire{Kind: o.Kind, Path: o.Path, From: o.From}
	if w.Path == nil {
		w.Path = Path{}
	}
	switch o.Kind {
	case Add, Replace, Test:
		v := o.Value
		w.Value = &v
	}
	return json.Marshal(w)
}

// ============================================================
// Constructors
// ============================================================

func NewAdd(path Path, value any) Operation {
	return Operation{Kind: Add, Path: path, Value: value}
}

func NewRemove(path Path) Operation {
	return Operation{Kind: Remove, Path: path}
}

func NewReplace(path Path, value any) Operation {
	return Operation{Kind: Replace, Path: path, Value: value}
}

func NewMove(from, path Path) Operation {
	return Operation{Kind: Move, From: from, Path: path}
}

func NewTest(path Path, value any) Operation {
	return Operation{Kind: Test, Path: path, Value: value}
}
