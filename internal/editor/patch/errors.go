package patch

import (
	"errors"
	"fmt"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrPathNotFound = errors.New("path not found")
	ErrInvalidIndex = errors.New("invalid array index")
	ErrNotContainer = errors.New("value is not an object or array")
	ErrTestFailed   = errors.New("test operation failed")
	ErrTypeMismatch = errors.New("patched document does not match its schema")
	ErrMoveIntoSelf = errors.New("cannot move a value into its own child")
	ErrUnknownKind  = errors.New("unknown operation kind")
	ErrEmptyBatch   = errors.New("empty operation batch")

	ErrUndoFailed = errors.New("failed to undo change")
	ErrRedoFailed = errors.New("failed to redo change")
)

// ApplyError сообщает, что пакет операций несовместим с текущим состоянием.
// Index = -1, если отказала проверка схемы после применения всего пакета.
type ApplyError struct {
	Index int
	Op    Operation
	Err   error
}

func (e *ApplyError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("apply patch: %v", e.Err)
	}
	return fmt.Sprintf("apply patch: op %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// NoOpError возвращается, когда undo/redo упирается в границу истории.
type NoOpError struct {
	Action string
}

func (e *NoOpError) Error() string {
	return fmt.Sprintf("can't %s anymore", e.Action)
}
