package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes message handling. BeforeHandle may replace the
// payload; a non-nil error skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message, data []byte) (context.Context, []byte, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
	OnDeadLetter(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message, data []byte) (context.Context, []byte, error) {
	return ctx, data, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

func (NoopHook) OnDeadLetter(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before     func(context.Context, kafka.Message, []byte) (context.Context, []byte, error)
	After      func(context.Context, kafka.Message, error)
	DeadLetter func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message, data []byte) (context.Context, []byte, error) {
	if h.Before == nil {
		return ctx, data, nil
	}
	return h.Before(ctx, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

func (h HookFuncs) OnDeadLetter(ctx context.Context, km kafka.Message, err error) {
	if h.DeadLetter != nil {
		h.DeadLetter(ctx, km, err)
	}
}

// HookError is returned when a hook panics.
type HookError struct {
	Stage string
	Err   error
}

func (e *HookError) Error() string { return fmt.Sprintf("hook %s: %v", e.Stage, e.Err) }

func (e *HookError) Unwrap() error { return e.Err }

// safeBefore runs BeforeHandle, turning a panic into a HookError.
func safeBefore(h ConsumerHook, ctx context.Context, km kafka.Message, data []byte) (outCtx context.Context, out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			outCtx, out, err = ctx, data, &HookError{Stage: "before", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, km, data)
}

func safeAfter(h ConsumerHook, ctx context.Context, km kafka.Message, err error) {
	defer func() { _ = recover() }()
	h.AfterHandle(ctx, km, err)
}

func safeDeadLetter(h ConsumerHook, ctx context.Context, km kafka.Message, err error) {
	defer func() { _ = recover() }()
	h.OnDeadLetter(ctx, km, err)
}
