package report

import (
	"errors"
	"fmt"

	"reportforge/internal/errcode"
)

// ErrorKind classifies pipeline failures so callers can distinguish
// retryable from terminal outcomes without string-matching messages.
type ErrorKind string

const (
	KindInvalidEvent           ErrorKind = "invalid_event"
	KindUpstreamGeneration     ErrorKind = "upstream_generation"
	KindStorage                ErrorKind = "storage"
	KindContractViolation      ErrorKind = "contract_violation"
	KindInsufficientCandidates ErrorKind = "insufficient_candidates"
	KindRecordNotFound         ErrorKind = "record_not_found"
	KindInternal               ErrorKind = "internal"
)

// Error is the pipeline's failure type: a kind plus the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a pipeline error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to internal.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Retryable reports whether redelivery of the triggering event could
// plausibly succeed. Contract and validation failures are terminal.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUpstreamGeneration, KindStorage, KindInternal:
		return true
	default:
		return false
	}
}

// Code maps an error kind to the numeric code carried in notifications.
func (k ErrorKind) Code() int {
	switch k {
	case KindInvalidEvent:
		return errcode.InvalidEventData
	case KindUpstreamGeneration:
		return errcode.UpstreamGeneration
	case KindStorage:
		return errcode.StorageFailure
	case KindContractViolation:
		return errcode.ContractViolation
	case KindInsufficientCandidates:
		return errcode.InsufficientCandidates
	case KindRecordNotFound:
		return errcode.RecordNotFound
	default:
		return errcode.SystemError
	}
}
