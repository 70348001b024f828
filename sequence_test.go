package opz

import (
	"context"
	"errors"
	"testing"
)

// Hand-written variant sets used across the container tests. These mirror
// the shape of opzgen output: a sealed marker interface with struct
// variants whose Execute* methods forward to handler functions.

// Argless variants over a package-free counter context.

type tally struct {
	oneCount int
	twoCount int
}

type tallyOne struct{ t *tally }

func (o tallyOne) Execute(_ context.Context) error {
	o.t.oneCount++
	return nil
}

type tallyTwo struct{ t *tally }

func (o tallyTwo) Execute(_ context.Context) error {
	o.t.twoCount++
	return nil
}

// Read-only variants over a multiplier context.

type refData struct {
	mult int
}

type refOne struct {
	value int
	out   *int
}

func (o refOne) ExecuteWith(_ context.Context, arg refData) error {
	*o.out += o.value * arg.mult
	return nil
}

type refTwo struct {
	count *int
}

func (o refTwo) ExecuteWith(_ context.Context, arg refData) error {
	_ = arg
	*o.count++
	return nil
}

// Mutable variants over an accumulator context.

type mutData struct {
	oneValue int
	twoCount int
	trace    []string
}

type mutOne struct{ value int }

func (o mutOne) ExecuteWithMut(_ context.Context, arg *mutData) error {
	arg.oneValue += o.value
	arg.trace = append(arg.trace, "one")
	return nil
}

type mutTwo struct{}

func (mutTwo) ExecuteWithMut(_ context.Context, arg *mutData) error {
	arg.twoCount++
	arg.trace = append(arg.trace, "two")
	return nil
}

type mutFail struct{ err error }

func (o mutFail) ExecuteWithMut(_ context.Context, arg *mutData) error {
	arg.trace = append(arg.trace, "fail")
	return o.err
}

func TestGroup(t *testing.T) {
	t.Run("Void Dispatch Counts Each Variant Once", func(t *testing.T) {
		counts := &tally{}
		group := Group{tallyOne{counts}, tallyTwo{counts}}

		if err := group.Execute(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if counts.oneCount != 1 {
			t.Errorf("expected one count 1, got %d", counts.oneCount)
		}
		if counts.twoCount != 1 {
			t.Errorf("expected two count 1, got %d", counts.twoCount)
		}
	})

	t.Run("Empty Group Is No-op", func(t *testing.T) {
		var group Group
		if err := group.Execute(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Stops At First Error", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		group := Group{
			Task("first", func(_ context.Context) error {
				calls++
				return nil
			}),
			Task("second", func(_ context.Context) error {
				calls++
				return boom
			}),
			Task("third", func(_ context.Context) error {
				calls++
				return nil
			}),
		}

		err := group.Execute(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls before stop, got %d", calls)
		}
	})

	t.Run("Groups Nest", func(t *testing.T) {
		counts := &tally{}
		group := Group{
			tallyOne{counts},
			Group{tallyTwo{counts}, tallyTwo{counts}},
		}

		if err := group.Execute(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counts.twoCount != 2 {
			t.Errorf("expected two count 2, got %d", counts.twoCount)
		}
	})
}

func TestSequence(t *testing.T) {
	t.Run("Shared Context Forwarded To Every Variant", func(t *testing.T) {
		var value, count int
		seq := Sequence[refData]{
			refOne{value: 24, out: &value},
			refTwo{count: &count},
		}

		if err := seq.ExecuteWith(context.Background(), refData{mult: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if value != 48 {
			t.Errorf("expected 48, got %d", value)
		}
		if count != 1 {
			t.Errorf("expected count 1, got %d", count)
		}
	})

	t.Run("Empty Sequence Is No-op", func(t *testing.T) {
		var seq Sequence[refData]
		if err := seq.ExecuteWith(context.Background(), refData{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Sequences Nest", func(t *testing.T) {
		var value int
		seq := Sequence[refData]{
			Sequence[refData]{refOne{value: 1, out: &value}},
			refOne{value: 10, out: &value},
		}

		if err := seq.ExecuteWith(context.Background(), refData{mult: 3}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 33 {
			t.Errorf("expected 33, got %d", value)
		}
	})
}

func TestSequenceMut(t *testing.T) {
	t.Run("Mutations Accumulate In Order", func(t *testing.T) {
		seq := SequenceMut[mutData]{
			mutOne{value: 12},
			mutTwo{},
		}

		var data mutData
		if err := seq.ExecuteWithMut(context.Background(), &data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if data.oneValue != 12 {
			t.Errorf("expected one value 12, got %d", data.oneValue)
		}
		if data.twoCount != 1 {
			t.Errorf("expected two count 1, got %d", data.twoCount)
		}
		if len(data.trace) != 2 || data.trace[0] != "one" || data.trace[1] != "two" {
			t.Errorf("expected trace [one two], got %v", data.trace)
		}
	})

	t.Run("Later Variants See Earlier Mutations", func(t *testing.T) {
		seq := SequenceMut[mutData]{
			mutOne{value: 5},
			Mutate("double", func(_ context.Context, d *mutData) error {
				d.oneValue *= 2
				return nil
			}),
			mutOne{value: 1},
		}

		var data mutData
		if err := seq.ExecuteWithMut(context.Background(), &data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data.oneValue != 11 {
			t.Errorf("expected 11, got %d", data.oneValue)
		}
	})

	t.Run("Stops At First Error", func(t *testing.T) {
		boom := errors.New("boom")
		seq := SequenceMut[mutData]{
			mutOne{value: 1},
			mutFail{err: boom},
			mutOne{value: 100},
		}

		var data mutData
		err := seq.ExecuteWithMut(context.Background(), &data)
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if data.oneValue != 1 {
			t.Errorf("expected partial value 1, got %d", data.oneValue)
		}
		if len(data.trace) != 2 {
			t.Errorf("expected 2 trace entries, got %v", data.trace)
		}
	})

	t.Run("Empty Sequence Is No-op", func(t *testing.T) {
		var seq SequenceMut[mutData]
		var data mutData
		if err := seq.ExecuteWithMut(context.Background(), &data); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
