package dialog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState   = errors.New("dialog: operation not allowed in current state")
	ErrNotFound       = errors.New("dialog: entity not found")
	ErrSubmitInFlight = errors.New("dialog: a submission is already in flight")
	ErrUnknownSlot    = errors.New("dialog: unknown image slot")
	ErrUnknownImage   = errors.New("dialog: image not in slot")
	ErrDraftClosed    = errors.New("dialog: draft was closed")
	ErrPreviewGone    = errors.New("dialog: pending image was revoked")
)

// StateError reports an operation attempted from a state that does not allow
// it.
type StateError struct {
	Op   string
	From State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("dialog: cannot %s while %s", e.Op, e.From)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }
