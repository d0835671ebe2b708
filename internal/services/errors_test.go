package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"jellyzam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSampleRead, "sampling", "read", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSampleRead) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"sampling", "read", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransientMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureReasonMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "sampling", "open", "", nil), "not_found"},
		{services.Wrap(services.ErrAuthentication, "recognizing", "post", "", nil), "authentication"},
		{services.Wrap(services.ErrTransient, "recognizing", "post", "", nil), "transient_network"},
		{services.Wrap(services.ErrMalformedResponse, "recognizing", "decode", "", nil), "malformed_response"},
		{services.Wrap(services.ErrMetadataPersist, "reconciling", "update", "", nil), "metadata_persist"},
		{fmt.Errorf("wrapped: %w", context.Canceled), "cancelled"},
		{errors.New("other"), "unexpected"},
	}
	for _, tc := range cases {
		if got := services.FailureReason(tc.err); got != tc.want {
			t.Fatalf("FailureReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsRetryableOnlyForTransient(t *testing.T) {
	if !services.IsRetryable(services.Wrap(services.ErrTransient, "recognizing", "post", "", nil)) {
		t.Fatal("expected transient error to be retryable")
	}
	if services.IsRetryable(services.Wrap(services.ErrAuthentication, "recognizing", "post", "", nil)) {
		t.Fatal("authentication errors must not be retried")
	}
	if services.IsRetryable(fmt.Errorf("%w: %w", services.ErrTransient, context.Canceled)) {
		t.Fatal("cancelled calls must not be retried")
	}
	if services.IsRetryable(nil) {
		t.Fatal("nil error is not retryable")
	}
}
