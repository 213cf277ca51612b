package engine

import (
	"errors"
	"fmt"
)

// Error represents a failure detected while building, preparing or
// executing a pipeline.
//
// Errors are raised at the point of violation and never retried. They
// indicate malformed configuration (pipeline documents, tier tables) or
// malformed runtime input. The caller decides whether to re-prompt or abort.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Key is the record key, type tag or resource path involved, if any.
	Key string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeKeyNotFound indicates a read of a key absent from the record.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeKeyAlreadyDefined indicates a second write to a record key.
	ErrCodeKeyAlreadyDefined ErrorCode = "KEY_ALREADY_DEFINED"

	// ErrCodeNonNumericValue indicates a record key that does not hold a finite number.
	ErrCodeNonNumericValue ErrorCode = "NON_NUMERIC_VALUE"

	// ErrCodeInvalidNumber indicates a value that is not a finite number.
	ErrCodeInvalidNumber ErrorCode = "INVALID_NUMBER"

	// ErrCodeDivisionByZero indicates a zero where a non-zero number is required.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeNonMonotonicTiers indicates a tier boundary not above its predecessor.
	ErrCodeNonMonotonicTiers ErrorCode = "NON_MONOTONIC_TIERS"

	// ErrCodeTypeMismatch indicates a value of the wrong kind.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeNotInOptionList indicates a value outside the permitted options.
	ErrCodeNotInOptionList ErrorCode = "NOT_IN_OPTION_LIST"

	// ErrCodeOutOfRange indicates a value outside the min/max bounds.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeUnregisteredType indicates a type tag with no registered constructor.
	ErrCodeUnregisteredType ErrorCode = "UNREGISTERED_TYPE"

	// ErrCodeDuplicateRegistration indicates a type tag registered twice.
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"

	// ErrCodeInvalidParams indicates constructor parameters of the wrong shape.
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"

	// ErrCodeInvalidGraph indicates an illegal child attachment.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"

	// ErrCodeResourceNotLoaded indicates execution before resource loading.
	ErrCodeResourceNotLoaded ErrorCode = "RESOURCE_NOT_LOADED"

	// ErrCodeResourceFetch indicates a failed or unusable resource fetch.
	ErrCodeResourceFetch ErrorCode = "RESOURCE_FETCH"

	// ErrCodeFormulaFailed indicates a formula that threw or ran past its time limit.
	ErrCodeFormulaFailed ErrorCode = "FORMULA_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key=%s)", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's chain contains an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// KeyOf returns the key carried by the first *Error in err's chain, or "".
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Key
	}
	return ""
}

// NewKeyNotFoundError creates an Error for a missing record key.
func NewKeyNotFoundError(key string) *Error {
	return &Error{
		Code:    ErrCodeKeyNotFound,
		Message: "key is not defined in the record",
		Key:     key,
	}
}

// NewKeyAlreadyDefinedError creates an Error for a repeated record write.
func NewKeyAlreadyDefinedError(key string) *Error {
	return &Error{
		Code:    ErrCodeKeyAlreadyDefined,
		Message: "key is already defined in the record",
		Key:     key,
	}
}

// NewNonNumericValueError creates an Error for a record key whose value is
// not a finite number.
func NewNonNumericValueError(key string, value any) *Error {
	return &Error{
		Code:    ErrCodeNonNumericValue,
		Message: fmt.Sprintf("value %s is not a finite number", describe(value)),
		Key:     key,
	}
}

// NewInvalidNumberError creates an Error for a value that is not a finite number.
func NewInvalidNumberError(value any) *Error {
	return &Error{
		Code:    ErrCodeInvalidNumber,
		Message: fmt.Sprintf("value %s is not a finite number", describe(value)),
	}
}

// NewDivisionByZeroError creates an Error for a zero divisor.
func NewDivisionByZeroError() *Error {
	return &Error{
		Code:    ErrCodeDivisionByZero,
		Message: "value must be non-zero",
	}
}

// NewNonMonotonicTiersError creates an Error for a tier whose boundary does
// not exceed the previous boundary.
func NewNonMonotonicTiersError(index int, boundary, prior float64) *Error {
	return &Error{
		Code:    ErrCodeNonMonotonicTiers,
		Message: fmt.Sprintf("tier %d boundary %v is not greater than %v", index, boundary, prior),
		Details: map[string]string{
			"index":    fmt.Sprintf("%d", index),
			"boundary": fmt.Sprintf("%v", boundary),
			"prior":    fmt.Sprintf("%v", prior),
		},
	}
}

// NewTypeMismatchError creates an Error for a value of the wrong kind.
func NewTypeMismatchError(key, want string, value any) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("expected %s, got %s", want, describe(value)),
		Key:     key,
		Details: map[string]string{"want": want},
	}
}

// NewNotInOptionListError creates an Error for a value outside the option list.
func NewNotInOptionListError(key string, value any) *Error {
	return &Error{
		Code:    ErrCodeNotInOptionList,
		Message: fmt.Sprintf("value %s is not one of the permitted options", describe(value)),
		Key:     key,
	}
}

// NewOutOfRangeError creates an Error for a value outside its bounds.
func NewOutOfRangeError(key string, measured float64, bound string, limit float64) *Error {
	return &Error{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("value %v violates %s %v", measured, bound, limit),
		Key:     key,
		Details: map[string]string{
			bound: fmt.Sprintf("%v", limit),
		},
	}
}

// NewUnregisteredTypeError creates an Error for an unknown type tag.
func NewUnregisteredTypeError(tag string) *Error {
	return &Error{
		Code:    ErrCodeUnregisteredType,
		Message: fmt.Sprintf("no constructor registered for type %q", tag),
		Key:     tag,
	}
}

// NewDuplicateRegistrationError creates an Error for a type tag bound twice.
func NewDuplicateRegistrationError(tag string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateRegistration,
		Message: fmt.Sprintf("type %q is already registered", tag),
		Key:     tag,
	}
}

// NewInvalidParamsError creates an Error for malformed constructor parameters.
func NewInvalidParamsError(tag, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidParams,
		Message: message,
		Key:     tag,
	}
}

// NewInvalidGraphError creates an Error for an illegal child attachment.
func NewInvalidGraphError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidGraph,
		Message: message,
	}
}

// NewResourceNotLoadedError creates an Error for a resource-backed step
// executed before its payload was assigned.
func NewResourceNotLoadedError(path string) *Error {
	return &Error{
		Code:    ErrCodeResourceNotLoaded,
		Message: "resource payload has not been loaded",
		Key:     path,
	}
}

// NewResourceFetchError creates an Error for a resource that could not be
// fetched or did not have the expected shape.
func NewResourceFetchError(path string, cause error) *Error {
	return &Error{
		Code:    ErrCodeResourceFetch,
		Message: "resource could not be resolved",
		Key:     path,
		Err:     cause,
	}
}

// NewFormulaError creates an Error for a formula step whose evaluation
// failed. key is the step's result key.
func NewFormulaError(key string, cause error) *Error {
	return &Error{
		Code:    ErrCodeFormulaFailed,
		Message: "formula evaluation failed",
		Key:     key,
		Err:     cause,
	}
}

func describe(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%v (%T)", val, val)
	}
}
