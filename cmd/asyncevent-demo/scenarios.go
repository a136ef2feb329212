package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/errcode"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
)

// ErrHandlerFailed 示例 handler 的失败
var ErrHandlerFailed = errcode.Register(errcode.New(90, 1, "demo", "error.demo.handler_failed", "handler failed"))

type scenario struct {
	name    string
	title   string
	opts    event.InvokeOptions
	failing bool
}

var scenarios = []scenario{
	{"parallel", "Invoking async event handlers in parallel", event.InvokeInParallel, false},
	{"in-order", "Invoking async event handlers in order", event.InvokeInOrder, false},
	{"exceptions", "Invoking async event handlers with exceptions", event.InvokeInParallel, true},
	{"fail-fast", "Invoking async event handlers in order, failing on first exception", event.InvokeInOrder | event.FailOnFirstException, true},
}

func scenarioNames() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.name
	}
	return names
}

// selectScenarios 按名称挑选，空列表表示全部
func selectScenarios(names []string) ([]scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	picked := make([]scenario, 0, len(names))
	for _, name := range names {
		found := false
		for _, s := range scenarios {
			if s.name == name {
				picked = append(picked, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q, want one of %v", name, scenarioNames())
		}
	}
	return picked, nil
}

// printer 并发 handler 共用的输出
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func demoHandler(out *printer, ordinal string, delay time.Duration, fail error) event.Handler[string] {
	return func(ctx context.Context, sender any, args string) error {
		out.Printf("%s handler (%s) before delay\n", ordinal, args)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		out.Printf("%s handler after delay\n", ordinal)
		return fail
	}
}

// runScenarios 每个场景新建一个 Source，挂两个 handler（delay 与 2*delay），再异步触发
func runScenarios(ctx context.Context, ec *event.Component, w io.Writer, list []scenario, delay time.Duration) error {
	out := &printer{w: w}

	for _, sc := range list {
		src := event.NewComponentSource[string](ec, event.WithSender(sc.name))

		var firstErr, secondErr error
		if sc.failing {
			firstErr = ErrHandlerFailed.WithMsg("First exception").WithData("handler", "first")
			secondErr = ErrHandlerFailed.WithMsg("Second exception").WithData("handler", "second")
		}
		src.Subscribe(demoHandler(out, "First", delay, firstErr))
		src.Subscribe(demoHandler(out, "Second", 2*delay, secondErr))

		out.Printf("%s\n", sc.title)

		select {
		case err := <-src.RaiseAsync(ctx, "hello", sc.opts):
			if err != nil {
				reportError(out, err)
			} else {
				out.Printf("Done invoking async event handlers\n")
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		out.Printf("\n")
	}
	return nil
}

// reportError 外层错误类型和消息，然后逐个列出下一层错误
func reportError(out *printer, err error) {
	out.Printf("Exception %s\n", describe(err))
	for _, inner := range event.InnerErrors(err) {
		out.Printf("  Inner exception %s\n", describe(inner))
	}
}

func describe(err error) string {
	s := fmt.Sprintf("%T with message '%s'", err, err.Error())
	if le, ok := err.(*errcode.LayeredError); ok {
		s += fmt.Sprintf(" (code %d)", le.Code())
	}
	return s
}
