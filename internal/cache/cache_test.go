package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestKey(t *testing.T) {
	t.Parallel()

	if got, want := Key("fn"), "fn"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if got, want := Key("fn", 42, "x"), "fn|42|x"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if Key("fn", 1) == Key("fn", 2) {
		t.Error("distinct args produced identical keys")
	}
}

func TestGetOrComputeMemoizes(t *testing.T) {
	t.Parallel()
	c := New[int]()
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	for i := 0; i < 5; i++ {
		v, err := c.GetOrCompute(ctx, "k", compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("compute ran %d times, want 1", n)
	}
}

func TestGetOrComputeSharesInflight(t *testing.T) {
	t.Parallel()
	c := New[int]()
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(ctx, "k", compute)
			if err != nil {
				t.Errorf("GetOrCompute: %v", err)
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	if n := calls.Load(); n > 2 {
		// One flight is the norm; a second is possible if a goroutine misses
		// the group window. Anything more means dedup is broken.
		t.Errorf("compute ran %d times, want at most 2", n)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("goroutine %d got %d, want 7", i, v)
		}
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	c := New[int]()
	ctx := context.Background()

	boom := errors.New("boom")
	var calls atomic.Int32
	_, err := c.GetOrCompute(ctx, "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	v, err := c.GetOrCompute(ctx, "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 9, nil
	})
	if err != nil || v != 9 {
		t.Fatalf("retry got (%d, %v), want (9, nil)", v, err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("compute ran %d times, want 2", n)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()
	c := New[string]()

	c.Put("k", "v1")
	if !c.Invalidate("k") {
		t.Error("Invalidate existing key = false, want true")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived invalidation")
	}
	// Idempotent on absent keys.
	if c.Invalidate("k") {
		t.Error("Invalidate absent key = true, want false")
	}
	if c.Invalidate("never-existed") {
		t.Error("Invalidate unknown key = true, want false")
	}
}

func TestInvalidateDuringComputePreventsStaleStore(t *testing.T) {
	t.Parallel()
	c := New[int]()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = c.GetOrCompute(ctx, "k", func(context.Context) (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
	}()

	<-entered
	c.Invalidate("k")
	close(release)
	<-done

	// The in-flight compute finished after the invalidation, so its result
	// must not have been stored.
	if v, ok := c.Get("k"); ok {
		t.Errorf("stale value %d stored past invalidation", v)
	}
}

func TestInvalidateFunc(t *testing.T) {
	t.Parallel()
	c := New[int]()

	c.Put(Key("fn", 1), 1)
	c.Put(Key("fn", 2), 2)
	c.Put(Key("other", 1), 3)

	if n := c.InvalidateFunc("fn"); n != 2 {
		t.Errorf("InvalidateFunc removed %d entries, want 2", n)
	}
	if _, ok := c.Get(Key("other", 1)); !ok {
		t.Error("unrelated entry was removed")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
