package event

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// UnsubscribeFunc removes one subscription, safe to call more than once
type UnsubscribeFunc func()

// Source owns the handlers of one event and raises it
// Subscribe and Unsubscribe may run concurrently with Raise: every raise works on a
// snapshot taken when it starts, later changes never reach an in-flight invocation.
type Source[T any] struct {
	mu             sync.RWMutex
	subs           []subscription[T]
	nextID         uint64
	sender         any
	invoker        *Invoker
	pool           *ants.Pool
	defaultOptions InvokeOptions
}

// NewSource creates an event source
func NewSource[T any](opts ...SourceOption) *Source[T] {
	cfg := sourceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Source[T]{
		invoker:        cfg.invoker,
		pool:           cfg.pool,
		defaultOptions: cfg.defaultOptions,
	}
	if s.invoker == nil {
		s.invoker = defaultInvoker
	}
	s.sender = cfg.sender
	if !cfg.senderSet {
		s.sender = s
	}
	return s
}

// Subscribe registers a handler and returns its unsubscribe function
// Subscribing the same handler twice creates two independent subscriptions.
func (s *Source[T]) Subscribe(handler Handler[T], opts ...SubscribeOption) UnsubscribeFunc {
	if handler == nil {
		return func() {}
	}

	o := subscriptionOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	sub := subscription[T]{
		id:       atomic.AddUint64(&s.nextID, 1),
		handler:  handler,
		priority: o.priority,
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	// Sort by priority
	sort.SliceStable(s.subs, func(i, j int) bool {
		return s.subs[i].priority < s.subs[j].priority
	})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(sub.id) })
	}
}

// unsubscribe cancel subscription
func (s *Source[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Snapshot returns the current handlers in invocation order
// Nil when nothing is subscribed.
func (s *Source[T]) Snapshot() HandlerList[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.subs) == 0 {
		return nil
	}
	list := make(HandlerList[T], len(s.subs))
	for i, sub := range s.subs {
		list[i] = sub.handler
	}
	return list
}

// Len number of current subscriptions
func (s *Source[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Sender the identity handed to handlers
func (s *Source[T]) Sender() any {
	return s.sender
}

// Raise invokes the current handlers and waits for the outcome
func (s *Source[T]) Raise(ctx context.Context, args T, opts InvokeOptions) error {
	return Invoke(ctx, s.invoker, s.Snapshot(), s.sender, args, opts)
}

// RaiseDefault raises with the options configured through WithDefaultOptions
func (s *Source[T]) RaiseDefault(ctx context.Context, args T) error {
	return s.Raise(ctx, args, s.defaultOptions)
}

// RaiseAsync starts the invocation in the background and returns a channel for its outcome
// The snapshot is taken before RaiseAsync returns. The channel is buffered and receives
// exactly one value, nil on success.
func (s *Source[T]) RaiseAsync(ctx context.Context, args T, opts InvokeOptions) <-chan error {
	done := make(chan error, 1)
	list := s.Snapshot()

	if len(list) == 0 {
		done <- nil
		return done
	}

	run := func() {
		done <- Invoke(ctx, s.invoker, list, s.sender, args, opts)
	}

	if s.pool == nil {
		go run()
		return done
	}

	if err := s.pool.Submit(run); err != nil {
		if s.invoker.logger != nil {
			s.invoker.logger.ErrorCtx(ctx, "提交异步事件失败",
				zap.String("options", opts.String()),
				zap.Error(err))
		}
		done <- ErrPoolUnavailable.Wrap(err)
	}
	return done
}
