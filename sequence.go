package opz

import "context"

// Group is an ordered collection of argless executables. Executing a Group
// executes every element in order, stopping at the first error.
//
// Group is the container analog of the Executable capability: because Group
// itself implements Executable, groups nest freely inside other groups.
type Group []Executable

// Execute runs every element of the group in order. Execution stops at the
// first error, which is returned unchanged. An empty or nil group succeeds
// as a no-op.
func (g Group) Execute(ctx context.Context) error {
	for _, op := range g {
		if err := op.Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Sequence is an ordered collection of executables sharing a read-only
// context of type C. Every element of a run receives the same value.
//
// Sequence implements ExecutableWith[C], so sequences nest inside other
// sequences and can be registered wherever a single operation is expected:
//
//	setup := opz.Sequence[Config]{
//	    LoadDefaults{},
//	    ApplyOverrides{Source: "env"},
//	}
//	err := setup.ExecuteWith(ctx, cfg)
type Sequence[C any] []ExecutableWith[C]

// ExecuteWith runs every element of the sequence in order, forwarding the
// same context value to each. Execution stops at the first error, which is
// returned unchanged. An empty or nil sequence succeeds as a no-op.
func (s Sequence[C]) ExecuteWith(ctx context.Context, arg C) error {
	for _, op := range s {
		if err := op.ExecuteWith(ctx, arg); err != nil {
			return err
		}
	}
	return nil
}

// SequenceMut is an ordered collection of executables sharing a mutable
// context of type C. Every element of a run receives the same pointer, so
// mutations made by one handler are visible to the handlers after it.
//
// SequenceMut implements ExecutableWithMut[C] and nests like Sequence.
// For named, observable execution of the same shape, use Pipeline.
type SequenceMut[C any] []ExecutableWithMut[C]

// ExecuteWithMut runs every element of the sequence in order, forwarding
// the same context pointer to each. Execution stops at the first error,
// which is returned unchanged. An empty or nil sequence succeeds as a
// no-op.
func (s SequenceMut[C]) ExecuteWithMut(ctx context.Context, arg *C) error {
	for _, op := range s {
		if err := op.ExecuteWithMut(ctx, arg); err != nil {
			return err
		}
	}
	return nil
}
