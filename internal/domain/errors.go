package domain

import (
	"errors"
	"fmt"
)

// Stable error codes shared by the HTTP envelope and logs.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeForbidden         = "forbidden"
	CodeInvalidState      = "invalid_state"
	CodeSignatureMismatch = "signature_mismatch"
	CodeHoldExpired       = "hold_expired"
	CodeOrderMismatch     = "order_mismatch"
	CodeVendorFailure     = "vendor_failure"
	CodeGatewayFailure    = "gateway_failure"
	CodeConflict          = "conflict"
	CodeInternal          = "internal_error"
)

// DomainError keeps backward compatibility for generic codes.
type DomainError struct {
	Code string
	Err  error
}

func (e DomainError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	if e.Code == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e DomainError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ForbiddenError is returned when the caller does not own the resource.
type ForbiddenError struct {
	Resource string
}

func (e ForbiddenError) Error() string {
	if e.Resource == "" {
		return "forbidden"
	}
	return fmt.Sprintf("%s does not belong to the requesting user", e.Resource)
}

// InvalidStateError reports an operation that is not legal for the current status.
type InvalidStateError struct {
	Resource string
	State    string
	Msg      string
}

func (e InvalidStateError) Error() string {
	switch {
	case e.Msg != "" && e.State != "":
		return fmt.Sprintf("%s in state %s: %s", e.Resource, e.State, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.State != "":
		return fmt.Sprintf("%s: operation not allowed in state %s", e.Resource, e.State)
	default:
		return "invalid state"
	}
}

type SignatureMismatchError struct{}

func (SignatureMismatchError) Error() string { return "payment signature mismatch" }

type HoldExpiredError struct {
	BookingID int64
}

func (e HoldExpiredError) Error() string {
	return fmt.Sprintf("price hold for booking %d has expired", e.BookingID)
}

type OrderMismatchError struct {
	Expected string
	Got      string
}

func (e OrderMismatchError) Error() string {
	return fmt.Sprintf("gateway order mismatch: expected %s, got %s", e.Expected, e.Got)
}

// VendorFailureError wraps a declined or failed vendor confirmation.
type VendorFailureError struct {
	Reason string
	Err    error
}

func (e VendorFailureError) Error() string {
	if e.Reason != "" {
		return "vendor failure: " + e.Reason
	}
	if e.Err != nil {
		return "vendor failure: " + e.Err.Error()
	}
	return "vendor failure"
}

func (e VendorFailureError) Unwrap() error { return e.Err }

// GatewayFailureError wraps an error from the payment processor itself.
type GatewayFailureError struct {
	Op  string
	Err error
}

func (e GatewayFailureError) Error() string {
	if e.Err == nil {
		return "gateway failure: " + e.Op
	}
	return fmt.Sprintf("gateway failure: %s: %v", e.Op, e.Err)
}

func (e GatewayFailureError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsSignatureMismatch(err error) bool {
	var target SignatureMismatchError
	return errors.As(err, &target)
}

func IsHoldExpired(err error) bool {
	var target HoldExpiredError
	return errors.As(err, &target)
}

func IsOrderMismatch(err error) bool {
	var target OrderMismatchError
	return errors.As(err, &target)
}

func IsVendorFailure(err error) bool {
	var target VendorFailureError
	return errors.As(err, &target)
}

func IsGatewayFailure(err error) bool {
	var target GatewayFailureError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// Code returns the stable error code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return CodeValidation
	case IsNotFound(err):
		return CodeNotFound
	case IsForbidden(err):
		return CodeForbidden
	case IsSignatureMismatch(err):
		return CodeSignatureMismatch
	case IsHoldExpired(err):
		return CodeHoldExpired
	case IsOrderMismatch(err):
		return CodeOrderMismatch
	case IsInvalidState(err):
		return CodeInvalidState
	case IsVendorFailure(err):
		return CodeVendorFailure
	case IsGatewayFailure(err):
		return CodeGatewayFailure
	case IsConflict(err):
		return CodeConflict
	}
	var de DomainError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return CodeInternal
}
