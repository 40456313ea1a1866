package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	fail := errors.New("down")

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d unexpectedly rejected: %v", i, err)
		}
		b.Record(fail)
	}

	if b.State() != BreakerOpen {
		t.Fatalf("expected open state, got %v", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	fail := errors.New("down")

	b.Record(fail)
	b.Record(fail)
	b.Record(nil)
	b.Record(fail)
	b.Record(fail)

	if b.State() != BreakerClosed {
		t.Errorf("expected closed after success reset, got %v", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("down"))
	if err := b.Allow(); err == nil {
		t.Fatal("expected open breaker to reject")
	}

	// After cooldown a probe is admitted.
	now = now.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to be admitted, got %v", err)
	}

	// Failed probe reopens immediately.
	b.Record(errors.New("still down"))
	if err := b.Allow(); err == nil {
		t.Error("expected reopened breaker to reject")
	}

	// Successful probe closes.
	now = now.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe admitted: %v", err)
	}
	b.Record(nil)
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after successful probe, got %v", b.State())
	}
}

func TestBreakerSet_PerCollaborator(t *testing.T) {
	s := NewBreakerSet(1, time.Minute)

	s.Get("notion").Record(errors.New("down"))

	if s.Get("notion").State() != BreakerOpen {
		t.Error("expected notion breaker open")
	}
	if s.Get("salesforce").State() != BreakerClosed {
		t.Error("expected salesforce breaker unaffected")
	}
	if s.Get("notion") != s.Get("notion") {
		t.Error("expected stable breaker identity per name")
	}
}

func TestErrBreakerOpen_NotRetryable(t *testing.T) {
	// An open breaker must fail fast: retrying inside the same retry loop
	// would defeat the point of short-circuiting.
	if IsTransient(ErrBreakerOpen) {
		t.Error("expected ErrBreakerOpen to be non-transient")
	}
}
