package patch

import (
	"fmt"
)

// ============================================================
// Edit history
// ============================================================

// Engine хранит состояние документа и историю правок: пары (forward, inverse)
// и курсор на последнюю применённую правку (-1, если правок нет).
//
// Engine не синхронизирован: у документа один писатель.
type Engine[T any] struct {
	state   T
	forward [][]Operation
	inverse [][]Operation
	cursor  int
}

func NewEngine[T any](initial T) *Engine[T] {
	return &Engine[T]{
		state:  initial,
		cursor: -1,
	}
}

// State возвращает текущее состояние. Вызывающий не должен его изменять.
func (e *Engine[T]) State() T {
	return e.state
}

// Reset подменяет состояние без записи в историю.
func (e *Engine[T]) Reset(state T) {
	e.state = state
}

func (e *Engine[T]) Cursor() int {
	return e.cursor
}

func (e *Engine[T]) Len() int {
	return len(e.forward)
}

func (e *Engine[T]) CanUndo() bool {
	return e.cursor >= 0
}

func (e *Engine[T]) CanRedo() bool {
	return e.cursor < len(e.forward)-1
}

// ApplyEdit применяет пакет атомарно и записывает его в историю.
// Ветка redo после курсора отбрасывается.
func (e *Engine[T]) ApplyEdit(ops []Operation) error {
	if len(ops) == 0 {
		return &ApplyError{Index: -1, Err: ErrEmptyBatch}
	}

	next, inverse, err := run(e.state, ops, true)
	if err != nil {
		return err
	}
	forward, err := normalizeOps(ops)
	if err != nil {
		return &ApplyError{Index: -1, Err: err}
	}

	keep := e.cursor + 1
	e.forward = append(e.forward[:keep:keep], forward)
	e.inverse = append(e.inverse[:keep:keep], inverse)
	e.cursor = len(e.forward) - 1
	e.state = next
	return nil
}

func (e *Engine[T]) Undo() error {
	if e.cursor == -1 {
		return &NoOpError{Action: "undo"}
	}

	next, _, err := run(e.state, e.inverse[e.cursor], false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUndoFailed, err)
	}

	e.state = next
	e.cursor--
	return nil
}

func (e *Engine[T]) Redo() error {
	if e.cursor == len(e.forward)-1 {
		return &NoOpError{Action: "redo"}
	}

	next, _, err := run(e.state, e.forward[e.cursor+1], false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedoFailed, err)
	}

	e.state = next
	e.cursor++
	return nil
}

// Entry возвращает пакеты правки i: прямой и обратный.
func (e *Engine[T]) Entry(i int) (forward, inverse []Operation, ok bool) {
	if i < 0 || i >= len(e.forward) {
		return nil, nil, false
	}
	return cloneOps(e.forward[i]), cloneOps(e.inverse[i]), true
}

// ============================================================
// Stateless helpers
// ============================================================

// Apply применяет ops к копии state.
func Apply[T any](state T, ops []Operation) (T, error) {
	next, _, err := run(state, ops, false)
	return next, err
}

// Invert возвращает пакет, отменяющий ops, вычисленный по state до применения.
func Invert[T any](state T, ops []Operation) ([]Operation, error) {
	_, inverse, err := run(state, ops, true)
	return inverse, err
}

func run[T any](state T, ops []Operation, withInverse bool) (T, []Operation, error) {
	var zero T

	doc, err := toTree(state)
	if err != nil {
		return zero, nil, &ApplyError{Index: -1, Err: err}
	}

	var steps [][]Operation
	if withInverse {
		steps = make([][]Operation, len(ops))
	}

	for i, op := range ops {
		if withInverse {
			inv, err := invertOp(doc, op)
			if err != nil {
				return zero, nil, &ApplyError{Index: i, Op: op, Err: err}
			}
			steps[i] = inv
		}
		doc, err = applyOp(doc, op)
		if err != nil {
			return zero, nil, &ApplyError{Index: i, Op: op, Err: err}
		}
	}

	next, err := fromTree[T](doc)
	if err != nil {
		return zero, nil, &ApplyError{Index: -1, Err: err}
	}

	var inverse []Operation
	for i := len(steps) - 1; i >= 0; i-- {
		inverse = append(inverse, steps[i]...)
	}
	return next, inverse, nil
}

// normalizeOps переводит значения в JSON-дерево, чтобы история не делила память с вызывающим.
func normalizeOps(ops []Operation) ([]Operation, error) {
	out := cloneOps(ops)
	for i := range out {
		if out[i].Value == nil {
			continue
		}
		value, err := toTree(out[i].Value)
		if err != nil {
			return nil, err
		}
		out[i].Value = value
	}
	return out, nil
}

func cloneOps(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = Operation{
			Kind:  op.Kind,
			Path:  op.Path.clone(),
			Value: cloneTree(op.Value),
		}
		if op.From != nil {
			out[i].From = op.From.clone()
		}
	}
	return out
}
