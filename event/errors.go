package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KOMKZ/go-yogan-asyncevent/errcode"
)

// AggregateError two or more handlers failed during one invocation
// Errors are ordered by completion for parallel invocation and by registration for InvokeInOrder.
// A single failure is never wrapped in an AggregateError.
type AggregateError struct {
	errs []error
}

// Error implements error
func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d handlers failed while invoking async event", len(e.errs))
	for i, err := range e.errs {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Errors returns a copy of the inner errors
// Also satisfies the interface multierr and zap use to expand grouped errors.
func (e *AggregateError) Errors() []error {
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// Unwrap lets errors.Is and errors.As search every inner error
func (e *AggregateError) Unwrap() []error {
	return e.Errors()
}

// Len number of inner errors
func (e *AggregateError) Len() int {
	return len(e.errs)
}

// PanicError a handler panicked instead of returning an error
type PanicError struct {
	Value any
	Stack string
}

// Error implements error
func (e *PanicError) Error() string {
	return fmt.Sprintf("async event handler panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// outcome collapses recorded errors: none -> nil, one -> itself, more -> aggregate
func outcome(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{errs: errs}
	}
}

// AsAggregate reports whether err is (or wraps) an AggregateError
func AsAggregate(err error) (*AggregateError, bool) {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg, true
	}
	return nil, false
}

// InnerErrors returns the errors one level below err
// Aggregate: its inner errors. Wrapped error: the single cause. Otherwise nil.
func InnerErrors(err error) []error {
	if err == nil {
		return nil
	}
	if agg, ok := err.(*AggregateError); ok {
		return agg.Errors()
	}
	if inner := errors.Unwrap(err); inner != nil {
		return []error{inner}
	}
	return nil
}

// Error codes of the event module (module code 60)
var (
	// ErrInvalidConfig event configuration failed validation
	ErrInvalidConfig = errcode.Register(errcode.New(60, 1, "event", "error.event.invalid_config", "invalid event configuration"))

	// ErrPoolUnavailable async raise could not be scheduled on the pool
	ErrPoolUnavailable = errcode.Register(errcode.New(60, 2, "event", "error.event.pool_unavailable", "async event pool unavailable"))
)
