package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapStorageError_PassesDomainErrorsThrough(t *testing.T) {
	domainErrs := []error{
		NewValidationError("date", "outside fiscal year range"),
		NewNotFoundError("account", 7),
		&InsufficientStockError{ItemId: 1, Available: dec("2"), Required: dec("5")},
		&CreditLimitExceededError{AccountId: 3, Available: dec("100"), Required: dec("200")},
		&SequenceConflictError{VoucherType: "SA"},
	}
	for _, err := range domainErrs {
		if got := WrapStorageError(err); got != err {
			t.Fatalf("domain error %T was wrapped: %v", err, got)
		}
	}
	// wrapped domain errors still pass through
	wrapped := fmt.Errorf("posting: %w", NewNotFoundError("item", 9))
	if got := WrapStorageError(wrapped); got != wrapped {
		t.Fatalf("wrapped domain error was re-wrapped: %v", got)
	}
}

func TestWrapStorageError_HidesInternals(t *testing.T) {
	internal := errors.New("Error 1213: Deadlock found when trying to get lock")
	got := WrapStorageError(internal)

	var storageErr *StorageError
	if !errors.As(got, &storageErr) {
		t.Fatalf("expected StorageError, got %T", got)
	}
	if got.Error() != "storage failure" {
		t.Fatalf("user-visible message leaks internals: %q", got.Error())
	}
	if !errors.Is(got, internal) {
		t.Fatal("underlying error must stay reachable for logs")
	}
}

func TestWrapStorageError_Nil(t *testing.T) {
	if WrapStorageError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
