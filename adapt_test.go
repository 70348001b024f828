package opz

import (
	"context"
	"errors"
	"testing"
)

func TestTask(t *testing.T) {
	t.Run("Success Passes Through", func(t *testing.T) {
		ran := false
		task := Task("noop", func(_ context.Context) error {
			ran = true
			return nil
		})

		if err := task.Execute(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ran {
			t.Error("expected task to run")
		}
	})

	t.Run("Error Is Wrapped With Name", func(t *testing.T) {
		boom := errors.New("boom")
		task := Task("explode", func(_ context.Context) error {
			return boom
		})

		err := task.Execute(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}

		var opErr *Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if len(opErr.Path) != 1 || opErr.Path[0] != "explode" {
			t.Errorf("expected path [explode], got %v", opErr.Path)
		}
		if !errors.Is(err, boom) {
			t.Error("expected wrapped error to match boom")
		}
	})

	t.Run("Name", func(t *testing.T) {
		task := Task("named", func(_ context.Context) error { return nil })
		if named, ok := task.(Named); !ok || named.Name() != "named" {
			t.Error("expected task to expose its name")
		}
	})
}

func TestEffect(t *testing.T) {
	t.Run("Receives Context By Value", func(t *testing.T) {
		seen := 0
		eff := Effect("observe", func(_ context.Context, n int) error {
			seen = n
			return nil
		})

		if err := eff.ExecuteWith(context.Background(), 42); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen != 42 {
			t.Errorf("expected 42, got %d", seen)
		}
	})

	t.Run("Error Is Wrapped With Name", func(t *testing.T) {
		boom := errors.New("boom")
		eff := Effect("explode", func(_ context.Context, _ int) error {
			return boom
		})

		err := eff.ExecuteWith(context.Background(), 0)
		var opErr *Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if opErr.Path[0] != "explode" {
			t.Errorf("expected path root explode, got %v", opErr.Path)
		}
	})

	t.Run("Cancellation Is Classified", func(t *testing.T) {
		eff := Effect("canceled", func(ctx context.Context, _ int) error {
			return ctx.Err()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := eff.ExecuteWith(ctx, 0)
		var opErr *Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if !opErr.IsCanceled() {
			t.Error("expected cancellation to be classified")
		}
	})
}

func TestMutate(t *testing.T) {
	t.Run("Mutates Shared Context", func(t *testing.T) {
		mut := Mutate("bump", func(_ context.Context, n *int) error {
			*n++
			return nil
		})

		value := 10
		if err := mut.ExecuteWithMut(context.Background(), &value); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 11 {
			t.Errorf("expected 11, got %d", value)
		}
	})

	t.Run("Error Is Wrapped With Name", func(t *testing.T) {
		boom := errors.New("boom")
		mut := Mutate("explode", func(_ context.Context, _ *int) error {
			return boom
		})

		value := 0
		err := mut.ExecuteWithMut(context.Background(), &value)
		var opErr *Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if opErr.Path[0] != "explode" {
			t.Errorf("expected path root explode, got %v", opErr.Path)
		}
	})

	t.Run("Nested Wrap Prepends Path", func(t *testing.T) {
		boom := errors.New("boom")
		inner := Mutate("inner", func(_ context.Context, _ *int) error {
			return boom
		})
		outer := Mutate("outer", func(ctx context.Context, n *int) error {
			return inner.ExecuteWithMut(ctx, n)
		})

		value := 0
		err := outer.ExecuteWithMut(context.Background(), &value)
		var opErr *Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if len(opErr.Path) != 2 || opErr.Path[0] != "outer" || opErr.Path[1] != "inner" {
			t.Errorf("expected path [outer inner], got %v", opErr.Path)
		}
	})
}
