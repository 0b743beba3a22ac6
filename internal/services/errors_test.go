package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"nutriverify/internal/catalog"
	"nutriverify/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrOracleUnavailable, "oracle", "propose", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrOracleUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"oracle", "propose", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestFailureStateMapping(t *testing.T) {
	unavailable := fmt.Errorf("batch: %w", services.Wrap(services.ErrOracleUnavailable, "oracle", "validate", "timeout", nil))
	if state := services.FailureState(unavailable); state != catalog.StateUnverified {
		t.Fatalf("expected unverified for oracle outage, got %s", state)
	}
	if !services.Retryable(unavailable) {
		t.Fatal("expected oracle outage to be retryable")
	}

	impossible := services.Wrap(services.ErrDataImpossible, "verification", "check", "density", nil)
	if state := services.FailureState(impossible); state != catalog.StateFlagged {
		t.Fatalf("expected flagged for impossible data, got %s", state)
	}
	if services.Retryable(impossible) {
		t.Fatal("expected impossible data to be final")
	}

	if state := services.FailureState(errors.New("unknown")); state != catalog.StateFlagged {
		t.Fatalf("expected flagged for unclassified error, got %s", state)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrDataImpossible, "", "", "x", nil), services.KindDataImpossible},
		{services.Wrap(services.ErrOracleDisagreement, "", "", "x", nil), services.KindOracleDisagreement},
		{services.Wrap(services.ErrConvergenceExhausted, "", "", "x", nil), services.KindConvergenceExhausted},
		{services.Wrap(services.ErrOracleUnavailable, "", "", "x", nil), services.KindOracleUnavailable},
		{errors.New("plain"), services.KindInternal},
	}
	for _, tc := range tests {
		if got := services.ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
