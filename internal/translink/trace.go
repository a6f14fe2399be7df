// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"context"
	"fmt"
	"sync"
)

// Trace collects a step-by-step account of reconciler operations for display
// in debug mode. A nil *Trace discards everything.
type Trace struct {
	mu    sync.Mutex
	steps []string
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Addf appends a formatted step.
func (t *Trace) Addf(format string, args ...any) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

// Steps returns a copy of the recorded steps.
func (t *Trace) Steps() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}

type traceKey struct{}

// WithTrace returns a context carrying t.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the trace carried by ctx, or nil.
func TraceFrom(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey{}).(*Trace)
	return t
}
