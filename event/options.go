package event

import (
	"fmt"
	"strings"

	"github.com/panjf2000/ants/v2"
)

// InvokeOptions invocation policy flags, combined with |
// The zero value runs every handler in parallel and collects all errors.
type InvokeOptions uint8

const (
	// InvokeInParallel start all handlers at once and wait for all of them (default)
	InvokeInParallel InvokeOptions = 0
	// InvokeInOrder run handlers one after another in registration order
	InvokeInOrder InvokeOptions = 1 << 0
	// FailOnFirstException stop at the first failing handler, only with InvokeInOrder
	FailOnFirstException InvokeOptions = 1 << 1
)

// Option tokens used by String and ParseInvokeOptions
const (
	optionInParallel     = "in_parallel"
	optionInOrder        = "in_order"
	optionFailOnFirst    = "fail_on_first_exception"
	optionTokenSeparator = "|"
)

// Has reports whether all bits of flag are set
func (o InvokeOptions) Has(flag InvokeOptions) bool {
	return o&flag == flag
}

// Sequential reports whether the sequential strategy is selected
func (o InvokeOptions) Sequential() bool {
	return o.Has(InvokeInOrder)
}

// FailFast reports whether sequential invocation stops on the first error
// FailOnFirstException without InvokeInOrder has no effect.
func (o InvokeOptions) FailFast() bool {
	return o.Sequential() && o.Has(FailOnFirstException)
}

// String renders the flag set, e.g. "in_order|fail_on_first_exception"
func (o InvokeOptions) String() string {
	if !o.Sequential() {
		if o.Has(FailOnFirstException) {
			return optionInParallel + optionTokenSeparator + optionFailOnFirst
		}
		return optionInParallel
	}
	if o.Has(FailOnFirstException) {
		return optionInOrder + optionTokenSeparator + optionFailOnFirst
	}
	return optionInOrder
}

// strategy label used in logs and metrics
func (o InvokeOptions) strategy() string {
	switch {
	case o.FailFast():
		return "sequential_fail_fast"
	case o.Sequential():
		return "sequential"
	default:
		return "parallel"
	}
}

// ParseInvokeOptions parses tokens separated by "|" or ","
// Accepted tokens: in_parallel, in_order, fail_on_first_exception. Empty input is InvokeInParallel.
func ParseInvokeOptions(s string) (InvokeOptions, error) {
	var opts InvokeOptions
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
	for _, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "", optionInParallel:
		case optionInOrder:
			opts |= InvokeInOrder
		case optionFailOnFirst:
			opts |= FailOnFirstException
		default:
			return 0, fmt.Errorf("unknown invoke option %q", strings.TrimSpace(f))
		}
	}
	return opts, nil
}

// subscription entry
type subscription[T any] struct {
	id       uint64     // Unique ID (for unsubscribing)
	handler  Handler[T] // handler
	priority int        // Priority (the smaller the number, the earlier it runs)
}

// SubscribeOption subscription options
type SubscribeOption func(*subscriptionOptions)

type subscriptionOptions struct {
	priority int
}

// WithPriority sets the priority
// The smaller the number, the earlier the handler runs under InvokeInOrder.
// Handlers with equal priority keep their registration order. Default priority is 0
func WithPriority(priority int) SubscribeOption {
	return func(o *subscriptionOptions) {
		o.priority = priority
	}
}

// SourceOption Source configuration options
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	sender         any
	senderSet      bool
	invoker        *Invoker
	pool           *ants.Pool
	defaultOptions InvokeOptions
}

// WithSender sets the sender identity passed to every handler
// Defaults to the Source itself.
func WithSender(sender any) SourceOption {
	return func(c *sourceConfig) {
		c.sender = sender
		c.senderSet = true
	}
}

// WithInvoker sets the invoker used by Raise (logging and metrics)
func WithInvoker(invoker *Invoker) SourceOption {
	return func(c *sourceConfig) {
		c.invoker = invoker
	}
}

// WithPool sets the goroutine pool used by RaiseAsync
// The pool is owned by the caller and is not released by the Source.
func WithPool(pool *ants.Pool) SourceOption {
	return func(c *sourceConfig) {
		c.pool = pool
	}
}

// WithDefaultOptions sets the options used by RaiseDefault
func WithDefaultOptions(opts InvokeOptions) SourceOption {
	return func(c *sourceConfig) {
		c.defaultOptions = opts
	}
}
