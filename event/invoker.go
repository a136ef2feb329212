package event

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const strategySingle = "single"

// Outcome labels used in metrics
const (
	OutcomeSuccess          = "success"
	OutcomeSingleFailure    = "single_failure"
	OutcomeAggregateFailure = "aggregate_failure"
)

// SpanName span opened for every traced invocation
const SpanName = "asyncevent.invoke"

// Invoker runs handler lists according to InvokeOptions
// It holds no per-invocation state and is safe for concurrent use.
// Logger, metrics and tracer are optional.
type Invoker struct {
	logger  *logger.CtxZapLogger
	metrics *EventMetrics
	tracer  trace.Tracer
}

// InvokerOption Invoker configuration options
type InvokerOption func(*Invoker)

// WithLogger sets the logger used for invocation debug logs
func WithLogger(l *logger.CtxZapLogger) InvokerOption {
	return func(iv *Invoker) {
		iv.logger = l
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *EventMetrics) InvokerOption {
	return func(iv *Invoker) {
		iv.metrics = m
	}
}

// WithTracer opens one span per invocation; handlers receive the span context
func WithTracer(t trace.Tracer) InvokerOption {
	return func(iv *Invoker) {
		iv.tracer = t
	}
}

// NewInvoker creates an invoker
func NewInvoker(opts ...InvokerOption) *Invoker {
	iv := &Invoker{}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

var defaultInvoker = &Invoker{}

// Invoke runs every handler in list and returns one outcome
//
//   - empty list: nil, nothing runs
//   - one handler: called directly, its error is returned as is
//   - parallel (default): all handlers start at once, all are awaited, none is cancelled;
//     errors are collected in completion order
//   - InvokeInOrder: handlers run strictly one after another in list order;
//     with FailOnFirstException the first error is returned and the rest never start
//
// One recorded error is returned unwrapped, two or more become *AggregateError.
// ctx is handed to the handlers; the engine itself never cancels or times out.
func Invoke[T any](ctx context.Context, iv *Invoker, list HandlerList[T], sender any, args T, opts InvokeOptions) error {
	if len(list) == 0 {
		return nil
	}
	if iv == nil {
		iv = defaultInvoker
	}

	strategy := strategySingle
	if len(list) > 1 {
		strategy = opts.strategy()
	}
	ctx, p := iv.begin(ctx, strategy, len(list))

	var err error
	switch {
	case len(list) == 1:
		err = callHandler(ctx, list[0], sender, args)
		iv.handlerDone(ctx, p, 0, err)
	case opts.Sequential():
		err = invokeSequential(ctx, iv, p, list, sender, args, opts.FailFast())
	default:
		err = invokeParallel(ctx, iv, p, list, sender, args)
	}

	iv.end(ctx, p, err)
	return err
}

// invokeParallel fan-out, then wait for every handler
func invokeParallel[T any](ctx context.Context, iv *Invoker, p *probe, list HandlerList[T], sender any, args T) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for i, h := range list {
		g.Go(func() error {
			err := callHandler(ctx, h, sender, args)
			iv.handlerDone(ctx, p, i, err)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			// never report to errgroup, failures must not short-circuit the barrier
			return nil
		})
	}
	_ = g.Wait()

	return outcome(errs)
}

// invokeSequential one handler at a time, in list order
func invokeSequential[T any](ctx context.Context, iv *Invoker, p *probe, list HandlerList[T], sender any, args T, failFast bool) error {
	var errs []error

	for i, h := range list {
		err := callHandler(ctx, h, sender, args)
		iv.handlerDone(ctx, p, i, err)
		if err == nil {
			continue
		}
		if failFast {
			iv.skipped(ctx, p, len(list)-i-1)
			return err
		}
		errs = append(errs, err)
	}

	return outcome(errs)
}

// callHandler runs one handler, turning a panic into *PanicError
func callHandler[T any](ctx context.Context, h Handler[T], sender any, args T) (err error) {
	if h == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return h(ctx, sender, args)
}

// probe per-invocation instrumentation state
type probe struct {
	id       string
	strategy string
	handlers int
	start    time.Time
	span     trace.Span
}

func (iv *Invoker) begin(ctx context.Context, strategy string, handlers int) (context.Context, *probe) {
	p := &probe{strategy: strategy, handlers: handlers, start: time.Now()}
	if iv.tracer != nil {
		ctx, p.span = iv.tracer.Start(ctx, SpanName,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("asyncevent.strategy", strategy),
				attribute.Int("asyncevent.handlers", handlers),
			))
	}
	if iv.logger != nil {
		p.id = uuid.NewString()
		iv.logger.DebugCtx(ctx, "async event invocation started",
			zap.String("invocation_id", p.id),
			zap.String("strategy", strategy),
			zap.Int("handlers", handlers))
	}
	return ctx, p
}

func (iv *Invoker) handlerDone(ctx context.Context, p *probe, index int, err error) {
	result := OutcomeSuccess
	if err != nil {
		result = "failure"
		if p.span != nil {
			p.span.AddEvent("handler failed", trace.WithAttributes(
				attribute.Int("asyncevent.handler_index", index),
				attribute.String("exception.message", err.Error()),
			))
		}
		if iv.logger != nil {
			iv.logger.DebugCtx(ctx, "async event handler failed",
				zap.String("invocation_id", p.id),
				zap.Int("index", index),
				zap.Error(err))
		}
	}
	if iv.metrics != nil {
		iv.metrics.RecordHandled(ctx, p.strategy, result)
	}
}

func (iv *Invoker) skipped(ctx context.Context, p *probe, remaining int) {
	if remaining <= 0 {
		return
	}
	if p.span != nil {
		p.span.SetAttributes(attribute.Int("asyncevent.skipped", remaining))
	}
	if iv.logger != nil {
		iv.logger.DebugCtx(ctx, "async event fail-fast, remaining handlers skipped",
			zap.String("invocation_id", p.id),
			zap.Int("skipped", remaining))
	}
	if iv.metrics != nil {
		iv.metrics.RecordSkipped(ctx, p.strategy, remaining)
	}
}

func (iv *Invoker) end(ctx context.Context, p *probe, err error) {
	result := outcomeLabel(err)
	if iv.logger != nil {
		fields := []zap.Field{
			zap.String("invocation_id", p.id),
			zap.String("outcome", result),
			zap.Duration("duration", time.Since(p.start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		iv.logger.DebugCtx(ctx, "async event invocation finished", fields...)
	}
	if iv.metrics != nil {
		iv.metrics.RecordInvoked(ctx, p.strategy, result, p.handlers, time.Since(p.start))
	}
	if p.span != nil {
		p.span.SetAttributes(attribute.String("asyncevent.outcome", result))
		if err != nil {
			p.span.RecordError(err)
			p.span.SetStatus(codes.Error, err.Error())
		} else {
			p.span.SetStatus(codes.Ok, "")
		}
		p.span.End()
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if _, ok := err.(*AggregateError); ok {
		return OutcomeAggregateFailure
	}
	return OutcomeSingleFailure
}
