package opz

import (
	"context"
	"time"
)

// Task wraps a plain function as a named Executable. Use it for one-off
// operations that do not justify a generated variant, or to splice ad-hoc
// steps between generated operations in a Group.
//
// Errors returned by fn are wrapped in *Error with the task's name as the
// path root, so failures remain attributable after composition.
//
// Example:
//
//	flush := opz.Task("flush_buffers", func(ctx context.Context) error {
//	    return w.Flush()
//	})
func Task(name Name, fn func(context.Context) error) Executable {
	return task{name: name, fn: fn}
}

type task struct {
	fn   func(context.Context) error
	name Name
}

// Execute implements the Executable interface.
func (t task) Execute(ctx context.Context) error {
	start := time.Now()
	if err := t.fn(ctx); err != nil {
		return wrapError(t.name, err, time.Since(start))
	}
	return nil
}

// Name returns the name of the task for debugging and error reporting.
func (t task) Name() Name {
	return t.name
}

// Effect wraps a function reading a shared context of type C as a named
// ExecutableWith[C]. The context is passed by value; use Mutate when the
// handler needs to modify it.
//
// Errors returned by fn are wrapped in *Error with the effect's name as
// the path root.
//
// Example:
//
//	audit := opz.Effect("audit_frame", func(ctx context.Context, c Canvas) error {
//	    return auditor.Record(ctx, c)
//	})
func Effect[C any](name Name, fn func(context.Context, C) error) ExecutableWith[C] {
	return effect[C]{name: name, fn: fn}
}

type effect[C any] struct {
	fn   func(context.Context, C) error
	name Name
}

// ExecuteWith implements the ExecutableWith interface.
func (e effect[C]) ExecuteWith(ctx context.Context, arg C) error {
	start := time.Now()
	if err := e.fn(ctx, arg); err != nil {
		return wrapError(e.name, err, time.Since(start))
	}
	return nil
}

// Name returns the name of the effect for debugging and error reporting.
func (e effect[C]) Name() Name {
	return e.name
}

// Mutate wraps a function mutating a shared context of type C as a named
// ExecutableWithMut[C]. The context is passed by pointer, so changes are
// visible to every operation after this one in the same run.
//
// Errors returned by fn are wrapped in *Error with the mutation's name as
// the path root.
//
// Example:
//
//	reset := opz.Mutate("reset_origin", func(ctx context.Context, c *Canvas) error {
//	    c.X, c.Y = 0, 0
//	    return nil
//	})
func Mutate[C any](name Name, fn func(context.Context, *C) error) ExecutableWithMut[C] {
	return mutate[C]{name: name, fn: fn}
}

type mutate[C any] struct {
	fn   func(context.Context, *C) error
	name Name
}

// ExecuteWithMut implements the ExecutableWithMut interface.
func (m mutate[C]) ExecuteWithMut(ctx context.Context, arg *C) error {
	start := time.Now()
	if err := m.fn(ctx, arg); err != nil {
		return wrapError(m.name, err, time.Since(start))
	}
	return nil
}

// Name returns the name of the mutation for debugging and error reporting.
func (m mutate[C]) Name() Name {
	return m.name
}
