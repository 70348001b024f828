// Package opz provides a small, type-safe toolkit for dispatching ordered
// sequences of heterogeneous operations against a shared context in Go.
//
// # Overview
//
// opz is built for the pattern where a program accumulates an ordered list
// of operations of different shapes, each carrying its own payload, and
// later executes them one by one against a single context object. Instead of
// writing the dispatch block by hand for every operation set, the author
// declares the operations as a sealed variant type, names a handler per
// variant, and lets the opzgen tool generate the dispatch methods.
//
// # Installation
//
//	go get github.com/zoobzio/opz
//	go install github.com/zoobzio/opz/cmd/opzgen@latest
//
// Requires Go 1.21+ for generic type constraints.
//
// # Core Concepts
//
// The library is built around three capability interfaces, one per context
// flavor:
//
//	type Executable interface {
//	    Execute(context.Context) error
//	}
//
//	type ExecutableWith[C any] interface {
//	    ExecuteWith(context.Context, C) error
//	}
//
//	type ExecutableWithMut[C any] interface {
//	    ExecuteWithMut(context.Context, *C) error
//	}
//
// C is the shared context threaded through every operation in a run.
// ExecutableWith passes it by value for read-only access; ExecutableWithMut
// passes a pointer so handlers can mutate it in place.
//
// Key components:
//   - Generated variants: struct types whose Execute* methods are emitted by
//     opzgen, each forwarding to a named handler function
//   - Containers: Group, Sequence and SequenceMut slices that execute their
//     elements in order, and the observable Pipeline connector
//   - Adapters: Task, Effect and Mutate wrap ad-hoc functions so they can sit
//     alongside generated variants in the same container
//
// Execution follows a fail-fast pattern: elements run strictly in order,
// every invocation receives the same context reference, and processing stops
// at the first error.
//
// # Declaring an Operation Set
//
// A variant set is a sealed interface plus one struct per operation. The
// opzgen directives name the shared context type and the handler for each
// variant:
//
//	//opz:dispatch mut=Canvas
//	type Op interface{ isOp() }
//
//	//opz:handler applyForward
//	type Forward struct{ Dist float64 }
//
//	//opz:handler applyTurn
//	type Turn struct{ Deg float64 }
//
// Handlers are plain functions receiving the context first, then the
// variant's payload fields in declaration order, then the shared context
// argument:
//
//	func applyForward(ctx context.Context, dist float64, c *Canvas) error
//
// Running opzgen (typically via go:generate) emits the marker method and an
// ExecuteWithMut method for every variant, so an ordered run is just:
//
//	ops := opz.SequenceMut[Canvas]{
//	    Forward{Dist: 10},
//	    Turn{Deg: 90},
//	    Forward{Dist: 5},
//	}
//	err := ops.ExecuteWithMut(ctx, &canvas)
//
// # Error Handling
//
// Failures from adapters and the Pipeline connector are reported through the
// Error type, which records the path of named components the failure passed
// through along with timing and cancellation detail:
//
//	err := pipeline.ExecuteWithMut(ctx, &canvas)
//	if err != nil {
//	    var opErr *opz.Error
//	    if errors.As(err, &opErr) {
//	        log.Printf("failed at: %s", strings.Join(opErr.Path, " -> "))
//	        if opErr.Timeout {
//	            // handle timeout specifically
//	        }
//	    }
//	}
//
// # Observability
//
// The Pipeline connector exposes metrics, traces and hook events for every
// run; see Pipeline for the full list of keys. The plain slice containers
// carry no observability and add no overhead.
package opz

import "context"

// Executable is the capability to run as one step of an ordered sequence
// with no shared argument. Generated variants of an argless dispatch set
// implement it, as do Group containers and Task adapters.
type Executable interface {
	Execute(context.Context) error
}

// ExecutableWith is the capability to run against a shared context of type C
// passed by value. Handlers see the same C for every element of a run but
// cannot mutate the caller's copy.
type ExecutableWith[C any] interface {
	ExecuteWith(context.Context, C) error
}

// ExecutableWithMut is the capability to run against a shared context of
// type C passed by pointer. Every element of a run receives the same *C, so
// mutations made by one handler are visible to the handlers after it.
type ExecutableWithMut[C any] interface {
	ExecuteWithMut(context.Context, *C) error
}

// Name is a type alias for operation and pipeline names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    RenderPipelineName opz.Name = "render"
//	    FlushName          opz.Name = "flush"
//	)
type Name = string

// Named is implemented by components that carry a Name for debugging and
// error reporting. Adapters and Pipeline implement it; generated variants
// do not, and are identified by their type name instead.
type Named interface {
	Name() Name
}
