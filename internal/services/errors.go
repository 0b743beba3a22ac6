package services

import (
	"errors"
	"fmt"
	"strings"

	"nutriverify/internal/catalog"
)

var (
	ErrDataImpossible       = errors.New("data impossible")
	ErrDataImplausible      = errors.New("data implausible")
	ErrOracleUnavailable    = errors.New("oracle unavailable")
	ErrOracleDisagreement   = errors.New("oracle disagreement")
	ErrConvergenceExhausted = errors.New("convergence exhausted")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrNotFound             = errors.New("not found")
)

// Error kinds recorded in audit payloads and review flags.
const (
	KindDataImpossible       = "data_impossible"
	KindDataImplausible      = "data_implausible"
	KindOracleUnavailable    = "oracle_unavailable"
	KindOracleDisagreement   = "oracle_disagreement"
	KindConvergenceExhausted = "convergence_exhausted"
	KindValidation           = "validation"
	KindConfiguration        = "configuration"
	KindNotFound             = "not_found"
	KindInternal             = "internal_error"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later state classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the record should be released and picked up by a
// later batch. Only oracle outages qualify; data problems never heal on retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable)
}

// ErrorKind maps an error to the audit kind recorded alongside flagged records.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataImpossible):
		return KindDataImpossible
	case errors.Is(err, ErrDataImplausible):
		return KindDataImplausible
	case errors.Is(err, ErrOracleUnavailable):
		return KindOracleUnavailable
	case errors.Is(err, ErrOracleDisagreement):
		return KindOracleDisagreement
	case errors.Is(err, ErrConvergenceExhausted):
		return KindConvergenceExhausted
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// FailureState maps a processing error to the state the pipeline should
// persist after the record fails.
func FailureState(err error) catalog.State {
	if Retryable(err) {
		return catalog.StateUnverified
	}
	return catalog.StateFlagged
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
