package recognition_test

import (
	"context"
	"errors"
	"testing"

	"jellyzam/internal/recognition"
	"jellyzam/internal/sampler"
	"jellyzam/internal/services"
)

type scriptedRecognizer struct {
	errs  []error
	calls int
}

func (s *scriptedRecognizer) Identify(context.Context, sampler.Sample, recognition.Credentials) ([]recognition.Match, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return []recognition.Match{{ID: "ok"}}, nil
}

func TestWithRetryRetriesTransientFailures(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "recognition", "identify", "", nil)
	inner := &scriptedRecognizer{errs: []error{transient, transient}}

	matches, err := recognition.WithRetry(inner, 3, 0).Identify(context.Background(), testSample(), testCreds)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if inner.calls != 3 || len(matches) != 1 {
		t.Fatalf("expected 3 calls and one match, got calls=%d matches=%d", inner.calls, len(matches))
	}
}

func TestWithRetryStopsAtLimit(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "recognition", "identify", "", nil)
	inner := &scriptedRecognizer{errs: []error{transient, transient, transient}}

	_, err := recognition.WithRetry(inner, 1, 0).Identify(context.Background(), testSample(), testCreds)
	if !errors.Is(err, services.ErrTransient) || inner.calls != 2 {
		t.Fatalf("expected transient error after 2 calls, got %v after %d", err, inner.calls)
	}
}

func TestWithRetryDoesNotRetryPermanentFailures(t *testing.T) {
	auth := services.Wrap(services.ErrAuthentication, "recognition", "identify", "", nil)
	inner := &scriptedRecognizer{errs: []error{auth}}

	_, err := recognition.WithRetry(inner, 5, 0).Identify(context.Background(), testSample(), testCreds)
	if !errors.Is(err, services.ErrAuthentication) || inner.calls != 1 {
		t.Fatalf("expected single authentication failure, got %v after %d calls", err, inner.calls)
	}
}

func TestWithRetryZeroRetriesReturnsInner(t *testing.T) {
	inner := &scriptedRecognizer{}
	if got := recognition.WithRetry(inner, 0, 0); got != recognition.Recognizer(inner) {
		t.Fatalf("expected inner recognizer to be returned unchanged")
	}
}
