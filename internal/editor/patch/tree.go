package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// ============================================================
// JSON tree
// ============================================================

// Документ патчится в своей JSON-форме: map[string]any, []any и скаляры.

func toTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// fromTree строго декодирует дерево обратно, лишние поля и неверные типы дают ошибку.
func fromTree[T any](tree any) (T, error) {
	var out T
	data, err := json.Marshal(tree)
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return out, nil
}

func cloneTree(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(val))
		for k, item := range val {
			cp[k] = cloneTree(item)
		}
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneTree(item)
		}
		return cp
	default:
		return val
	}
}

func parseIndex(key string, n int, allowEnd bool) (int, error) {
	if key == "-" {
		if allowEnd {
			return n, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, key)
	}
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, key)
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, key)
	}
	limit := n - 1
	if allowEnd {
		limit = n
	}
	if idx > limit {
		return 0, fmt.Errorf("%w: %d out of range [0,%d]", ErrInvalidIndex, idx, limit)
	}
	return idx, nil
}

func child(node any, key string) (any, error) {
	switch val := node.(type) {
	case map[string]any:
		item, ok := val[key]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrPathNotFound, key)
		}
		return item, nil
	case []any:
		idx, err := parseIndex(key, len(val), false)
		if err != nil {
			return nil, err
		}
		return val[idx], nil
	default:
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	}
}

func get(node any, path Path) (any, error) {
	cur := node
	for _, key := range path {
		next, err := child(cur, key)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// update заменяет контейнер, на который указывает path[:len-1], результатом fn.
func update(node any, path Path, fn func(container any, key string) (any, error)) (any, error) {
	if len(path) == 1 {
		return fn(node, path[0])
	}
	next, err := child(node, path[0])
	if err != nil {
		return nil, err
	}
	updated, err := update(next, path[1:], fn)
	if err != nil {
		return nil, err
	}
	switch val := node.(type) {
	case map[string]any:
		val[path[0]] = updated
		return val, nil
	case []any:
		idx, _ := parseIndex(path[0], len(val), false)
		val[idx] = updated
		return val, nil
	}
	return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, path[0])
}

func addAt(doc any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	return update(doc, path, func(container any, key string) (any, error) {
		switch val := container.(type) {
		case map[string]any:
			val[key] = value
			return val, nil
		case []any:
			idx, err := parseIndex(key, len(val), true)
			if err != nil {
				return nil, err
			}
			out := make([]any, 0, len(val)+1)
			out = append(out, val[:idx]...)
			out = append(out, value)
			return append(out, val[idx:]...), nil
		}
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	})
}

func removeAt(doc any, path Path) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: cannot remove the document root", ErrPathNotFound)
	}
	return update(doc, path, func(container any, key string) (any, error) {
		switch val := container.(type) {
		case map[string]any:
			if _, ok := val[key]; !ok {
				return nil, fmt.Errorf("%w: key %q", ErrPathNotFound, key)
			}
			delete(val, key)
			return val, nil
		case []any:
			idx, err := parseIndex(key, len(val), false)
			if err != nil {
				return nil, err
			}
			out := make([]any, 0, len(val)-1)
			out = append(out, val[:idx]...)
			return append(out, val[idx+1:]...), nil
		}
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	})
}

func replaceAt(doc any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	return update(doc, path, func(container any, key string) (any, error) {
		switch val := container.(type) {
		case map[string]any:
			if _, ok := val[key]; !ok {
				return nil, fmt.Errorf("%w: key %q", ErrPathNotFound, key)
			}
			val[key] = value
			return val, nil
		case []any:
			idx, err := parseIndex(key, len(val), false)
			if err != nil {
				return nil, err
			}
			val[idx] = value
			return val, nil
		}
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	})
}

// ============================================================
// Apply & invert
// ============================================================

func applyOp(doc any, op Operation) (any, error) {
	switch op.Kind {
	case Add:
		value, err := toTree(op.Value)
		if err != nil {
			return nil, err
		}
		return addAt(doc, op.Path, value)
	case Remove:
		return removeAt(doc, op.Path)
	case Replace:
		value, err := toTree(op.Value)
		if err != nil {
			return nil, err
		}
		return replaceAt(doc, op.Path, value)
	case Move:
		if intoSelf(op) {
			return nil, ErrMoveIntoSelf
		}
		value, err := get(doc, op.From)
		if err != nil {
			return nil, err
		}
		doc, err = removeAt(doc, op.From)
		if err != nil {
			return nil, err
		}
		return addAt(doc, op.Path, value)
	case Test:
		want, err := toTree(op.Value)
		if err != nil {
			return nil, err
		}
		got, err := get(doc, op.Path)
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(got, want) {
			return nil, fmt.Errorf("%w: %s", ErrTestFailed, op.Path)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, op.Kind)
}

// invertOp строит операции, отменяющие op, по состоянию doc до её применения.
func invertOp(doc any, op Operation) ([]Operation, error) {
	switch op.Kind {
	case Add:
		if len(op.Path) == 0 {
			return []Operation{NewReplace(Path{}, cloneTree(doc))}, nil
		}
		parentPath, key := op.Path.parent()
		container, err := get(doc, parentPath)
		if err != nil {
			return nil, err
		}
		switch val := container.(type) {
		case map[string]any:
			if old, ok := val[key]; ok {
				return []Operation{NewReplace(op.Path.clone(), cloneTree(old))}, nil
			}
			return []Operation{NewRemove(op.Path.clone())}, nil
		case []any:
			idx, err := parseIndex(key, len(val), true)
			if err != nil {
				return nil, err
			}
			return []Operation{NewRemove(appendKey(parentPath, strconv.Itoa(idx)))}, nil
		}
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	case Remove, Replace:
		old, err := get(doc, op.Path)
		if err != nil {
			return nil, err
		}
		if op.Kind == Remove {
			return []Operation{NewAdd(op.Path.clone(), cloneTree(old))}, nil
		}
		return []Operation{NewReplace(op.Path.clone(), cloneTree(old))}, nil
	case Move:
		return invertMove(doc, op)
	case Test:
		want, err := toTree(op.Value)
		if err != nil {
			return nil, err
		}
		return []Operation{NewTest(op.Path.clone(), want)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, op.Kind)
}

// invertMove: значение возвращается на место from; перезаписанный ключ восстанавливается.
func invertMove(doc any, op Operation) ([]Operation, error) {
	if intoSelf(op) {
		return nil, ErrMoveIntoSelf
	}
	if _, err := get(doc, op.From); err != nil {
		return nil, err
	}
	if len(op.Path) == 0 {
		return nil, fmt.Errorf("%w: cannot move onto the document root", ErrPathNotFound)
	}

	// Цель вычисляется после удаления from, так же как при применении.
	afterRemove, err := removeAt(cloneTree(doc), op.From)
	if err != nil {
		return nil, err
	}
	parentPath, key := op.Path.parent()
	container, err := get(afterRemove, parentPath)
	if err != nil {
		return nil, err
	}

	target := op.Path.clone()
	var overwritten []Operation
	switch val := container.(type) {
	case map[string]any:
		if old, ok := val[key]; ok {
			overwritten = append(overwritten, NewAdd(op.Path.clone(), cloneTree(old)))
		}
	case []any:
		idx, err := parseIndex(key, len(val), true)
		if err != nil {
			return nil, err
		}
		target = appendKey(parentPath, strconv.Itoa(idx))
	default:
		return nil, fmt.Errorf("%w: at key %q", ErrNotContainer, key)
	}

	return append([]Operation{NewMove(target, op.From.clone())}, overwritten...), nil
}

func intoSelf(op Operation) bool {
	return len(op.Path) > len(op.From) && op.Path.hasPrefix(op.From)
}

func appendKey(prefix Path, key string) Path {
	out := make(Path, 0, len(prefix)+1)
	out = append(out, prefix...)
	return append(out, key)
}
