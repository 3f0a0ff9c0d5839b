package service

import (
	"errors"
	"fmt"
	"strings"

	"go-retail-pos/pkg/validator"

	"gorm.io/gorm"
)

// Kind classifies a service failure so the HTTP layer can pick a status
// without looking at the message.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindConflict     Kind = "conflict"
	KindPersistence  Kind = "persistence"
	KindUnauthorized Kind = "unauthorized"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrInvoiceCollision  = errors.New("invoice number already in use, retry the sale")
	ErrActorRequired     = errors.New("an authenticated user is required")
	ErrTotalsMismatch    = errors.New("sale totals do not add up")
	ErrDueMismatch       = errors.New("due amount does not match total minus paid")
	ErrInvalidAdjustment = errors.New("adjustment type must be increase or decrease")
	ErrDuplicateSKU      = errors.New("SKU already exists")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidToken      = errors.New("invalid feedback token")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Error is the single error type returned across the service boundary.
type Error struct {
	Op        string
	Kind      Kind
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError carries the per-field failures reported by the validator.
type ValidationError struct {
	Fields []*validator.ErrorResponse
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// KindOf returns the kind of err, treating anything unclassified as a
// persistence failure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPersistence
}

func IsRetryable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Retryable
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func invalid(op string, err error) error {
	return newError(op, KindValidation, err)
}

func invalidf(op, format string, args ...interface{}) error {
	return newError(op, KindValidation, fmt.Errorf(format, args...))
}

func notFound(op string, err error) error {
	return newError(op, KindNotFound, err)
}

func ruleViolation(op string, err error) error {
	return newError(op, KindBusinessRule, err)
}

func conflict(op string, err error) error {
	return newError(op, KindConflict, err)
}

func unauthorized(op string, err error) error {
	return newError(op, KindUnauthorized, err)
}

// storeFailure wraps a repository error. Errors that are already classified
// pass through untouched.
func storeFailure(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Kind: KindPersistence, Err: fmt.Errorf("%s: %w", op, err)}
}

// checkStruct runs the struct validator and converts failures.
func checkStruct(op string, req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return invalid(op, &ValidationError{Fields: errs})
	}
	return nil
}

// lookupFailure maps a gorm lookup error to not-found or persistence.
func lookupFailure(op string, err, missing error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(op, missing)
	}
	return storeFailure(op, err)
}
