package event

import "context"

// Handler async event handler
// sender is forwarded unmodified from the raising side, args is never mutated by the engine.
// Returning nil signals completion, any other value is the handler's failure.
// A handler may block for as long as it needs; the engine waits for it.
type Handler[T any] func(ctx context.Context, sender any, args T) error

// HandlerList ordered snapshot of handlers for one event
// Order only matters for InvokeInOrder.
type HandlerList[T any] []Handler[T]

// Len returns the number of handlers in the list
func (l HandlerList[T]) Len() int {
	return len(l)
}

// Clone returns an independent copy of the list
func (l HandlerList[T]) Clone() HandlerList[T] {
	if len(l) == 0 {
		return nil
	}
	out := make(HandlerList[T], len(l))
	copy(out, l)
	return out
}

// Invoke runs the list with the default invoker (no logging, no metrics)
func (l HandlerList[T]) Invoke(ctx context.Context, sender any, args T, opts InvokeOptions) error {
	return Invoke(ctx, defaultInvoker, l, sender, args, opts)
}
