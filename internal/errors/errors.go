// Package errors defines the structured error types used across the
// rv-react runtime. Slot misuse and render failures are never silently
// swallowed: doing so would desynchronize slot indices from rendered
// output, so every failure carries enough context (component identity,
// slot index) to be surfaced through the external error sink.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of runtime errors.
type ErrorType string

const (
	// ErrorTypeSlot covers misuse of the slot API by a render function.
	ErrorTypeSlot ErrorType = "slot"
	// ErrorTypeRender covers failures raised by a render function itself.
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeCommit covers pass aborts propagated out of the committer.
	ErrorTypeCommit ErrorType = "commit"
	// ErrorTypeConfig covers invalid runtime or server configuration.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal covers invariant violations inside the runtime.
	ErrorTypeInternal ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeOutOfContext     = "ERR_OUT_OF_CONTEXT"
	ErrCodeSlotKindMismatch = "ERR_SLOT_KIND_MISMATCH"
	ErrCodeSlotOutOfRange   = "ERR_SLOT_OUT_OF_RANGE"
	ErrCodeRenderFailure    = "ERR_RENDER_FAILURE"
	ErrCodeCommitAborted    = "ERR_COMMIT_ABORTED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternal         = "ERR_INTERNAL"
)

// RuntimeError is a structured error with component and slot context.
type RuntimeError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Component string
	// SlotIndex is the slot the failure is attributable to, -1 otherwise.
	SlotIndex int
	// Recoverable errors leave the committed tree authoritative and allow
	// the runtime to keep serving it; unrecoverable ones indicate a
	// programmer error that should fail loudly at the call site.
	Recoverable bool
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.SlotIndex >= 0 {
		parts = append(parts, fmt.Sprintf("slot:%d", e.SlotIndex))
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *RuntimeError) Is(target error) bool {
	var t *RuntimeError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithComponent adds component context to the error.
func (e *RuntimeError) WithComponent(component string) *RuntimeError {
	e.Component = component
	return e
}

// WithSlot adds the slot index the failure is attributable to.
func (e *RuntimeError) WithSlot(index int) *RuntimeError {
	e.SlotIndex = index
	return e
}

// Error creation functions

// NewSlotError creates a slot API misuse error. Slot errors are
// local-fatal: the current pass aborts and the committed tree is kept.
func NewSlotError(code, message string) *RuntimeError {
	return &RuntimeError{
		Type:        ErrorTypeSlot,
		Code:        code,
		Message:     message,
		SlotIndex:   -1,
		Recoverable: false,
	}
}

// NewRenderError creates an error for a failed render function.
func NewRenderError(message string, cause error) *RuntimeError {
	return &RuntimeError{
		Type:        ErrorTypeRender,
		Code:        ErrCodeRenderFailure,
		Message:     message,
		Cause:       cause,
		SlotIndex:   -1,
		Recoverable: true,
	}
}

// NewCommitAborted creates the error reported when a pass is abandoned
// before commit. No partial patch is ever applied.
func NewCommitAborted(cause error) *RuntimeError {
	return &RuntimeError{
		Type:        ErrorTypeCommit,
		Code:        ErrCodeCommitAborted,
		Message:     "render pass aborted, committed tree unchanged",
		Cause:       cause,
		SlotIndex:   -1,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *RuntimeError {
	return &RuntimeError{
		Type:        ErrorTypeConfig,
		Code:        ErrCodeConfigInvalid,
		Message:     message,
		SlotIndex:   -1,
		Recoverable: false,
	}
}

// NewInternalError creates an internal invariant violation error.
func NewInternalError(message string, cause error) *RuntimeError {
	return &RuntimeError{
		Type:        ErrorTypeInternal,
		Code:        ErrCodeInternal,
		Message:     message,
		Cause:       cause,
		SlotIndex:   -1,
		Recoverable: false,
	}
}

// Helper constructors for the slot error taxonomy

// ErrOutOfContext reports a slot cursor used outside an active render
// invocation of the owning instance.
func ErrOutOfContext(op string) *RuntimeError {
	return NewSlotError(ErrCodeOutOfContext, op+" called outside an active render invocation")
}

// ErrSlotKindMismatch reports a render function that violated the fixed
// slot sequence invariant by requesting a different kind at a previously
// recorded index.
func ErrSlotKindMismatch(index int, want, got string) *RuntimeError {
	e := NewSlotError(
		ErrCodeSlotKindMismatch,
		fmt.Sprintf("slot kind mismatch: recorded %s, requested %s", want, got),
	)
	e.SlotIndex = index
	return e
}

// ErrSlotOutOfRange reports access to a slot index that was never created.
func ErrSlotOutOfRange(index, length int) *RuntimeError {
	e := NewSlotError(
		ErrCodeSlotOutOfRange,
		fmt.Sprintf("slot index %d out of range (have %d slots)", index, length),
	)
	e.SlotIndex = index
	return e
}

// Classification helpers

// IsRecoverable checks if an error leaves the runtime able to continue
// serving the committed tree.
func IsRecoverable(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Recoverable
	}
	return false
}

// IsSlotError checks if an error is a slot API misuse.
func IsSlotError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Type == ErrorTypeSlot
	}
	return false
}

// IsRenderError checks if an error originated in a render function.
func IsRenderError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Type == ErrorTypeRender
	}
	return false
}

// SlotIndexOf returns the slot index carried by err, or -1.
func SlotIndexOf(err error) int {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.SlotIndex
	}
	return -1
}
