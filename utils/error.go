package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an absent account/item/document, rejected before any write.
type NotFoundError struct {
	Resource string
	Key      any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.Key)
}

func NewNotFoundError(resource string, key any) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// InsufficientStockError carries available vs. required so callers can act on it.
type InsufficientStockError struct {
	ItemId    int
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item_id=%d: available=%s required=%s",
		e.ItemId, e.Available.String(), e.Required.String())
}

// CreditLimitExceededError carries the available credit and the required amount.
type CreditLimitExceededError struct {
	AccountId int
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("credit limit exceeded for account_id=%d: available=%s required=%s",
		e.AccountId, e.Available.String(), e.Required.String())
}

// SequenceConflictError should not surface if the counter increment is truly
// atomic; the generator retries once transparently before returning it.
type SequenceConflictError struct {
	VoucherType string
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("bill number conflict for voucher_type=%s", e.VoucherType)
}

// StorageError wraps transaction aborts as an opaque internal failure.
// User-visible responses must not leak the underlying error.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage failure" }

func (e *StorageError) Unwrap() error { return e.Err }

func WrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	var is *InsufficientStockError
	var cl *CreditLimitExceededError
	var sc *SequenceConflictError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) || errors.As(err, &cl) || errors.As(err, &sc) {
		return err
	}
	return &StorageError{Err: err}
}
