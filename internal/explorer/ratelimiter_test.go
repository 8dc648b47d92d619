package explorer

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestThrottle_Name(t *testing.T) {
	th := NewThrottle("tronscan", 5, nil)
	if th.Name() != "tronscan" {
		t.Errorf("Name() = %q, want %q", th.Name(), "tronscan")
	}
}

func TestThrottle_FirstCallImmediate(t *testing.T) {
	clock := newManualClock()
	th := NewThrottle("test", 5, clock)

	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(clock.Sleeps()) != 0 {
		t.Errorf("expected no sleep for first call, got %v", clock.Sleeps())
	}
}

func TestThrottle_MinimumGap(t *testing.T) {
	clock := newManualClock()
	th := NewThrottle("test", 5, clock)
	start := clock.Now()

	const calls = 6
	for i := 0; i < calls; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error on call %d: %v", i, err)
		}
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != calls-1 {
		t.Fatalf("expected %d sleeps, got %d (%v)", calls-1, len(sleeps), sleeps)
	}
	for i, d := range sleeps {
		if !approxEqual(d, 200*time.Millisecond) {
			t.Errorf("sleep %d = %v, want ~200ms", i, d)
		}
	}

	// 6 calls at 5 rps: first instant, then 5 gaps of 200ms.
	if elapsed := clock.Now().Sub(start); !approxEqual(elapsed, time.Second) {
		t.Errorf("elapsed = %v, want ~1s", elapsed)
	}
}

func TestThrottle_IdleRefills(t *testing.T) {
	clock := newManualClock()
	th := NewThrottle("test", 5, clock)

	ctx := context.Background()
	th.Wait(ctx)
	th.Wait(ctx)
	before := len(clock.Sleeps())

	clock.Advance(time.Second)

	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if after := len(clock.Sleeps()); after != before {
		t.Errorf("expected no extra sleep after idle period, got %d new", after-before)
	}
}

func TestThrottle_SharedAcrossCallers(t *testing.T) {
	// Two paginators sharing one throttle must not each get their own budget.
	clock := newManualClock()
	th := NewThrottle("test", 5, clock)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		th.Wait(ctx) // caller A
		th.Wait(ctx) // caller B
	}

	if got := len(clock.Sleeps()); got != 5 {
		t.Errorf("expected 5 sleeps for 6 interleaved calls, got %d", got)
	}
}

func TestThrottle_WaitCancelledContext(t *testing.T) {
	clock := newManualClock()
	th := NewThrottle("slow-provider", 1, clock)

	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := th.Wait(cancelCtx); err == nil {
		t.Fatal("Wait() with cancelled context should return error")
	}
}

func TestThrottle_SystemClockContextTimeout(t *testing.T) {
	th := NewThrottle("slow-provider", 1, SystemClock{})

	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}

	// Short timeout, won't be enough for the next token at 1 RPS.
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := th.Wait(timeoutCtx); err == nil {
		t.Fatal("Wait() with expired timeout should return error")
	}
}

func TestThrottle_ConcurrentWaiters(t *testing.T) {
	th := NewThrottle("concurrent-provider", 100, SystemClock{})

	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := th.Wait(ctx); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Wait() error: %v", err)
	}
}

func TestThrottle_RateComplianceRealClock(t *testing.T) {
	th := NewThrottle("rate-test", 10, SystemClock{})

	ctx := context.Background()
	const requests = 10

	start := time.Now()
	for i := 0; i < requests; i++ {
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("Wait() error on iteration %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First request instant, then 9 waits of ~100ms. Allow scheduling jitter.
	if minExpected := 800 * time.Millisecond; elapsed < minExpected {
		t.Errorf("10 requests at 10 RPS completed in %v, expected at least %v", elapsed, minExpected)
	}
}
