// Package storage provides the data persistence layer for customer histories.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/cohortlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidCustomer    = errors.New("invalid customer")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrCorruptRow         = errors.New("corrupt row")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCustomers validates a batch of customers and their transactions.
func validateCustomers(customers []model.Customer) error {
	if customers == nil {
		return fmt.Errorf("%w: customers", ErrNilParameter)
	}
	if len(customers) == 0 {
		return fmt.Errorf("%w: customers", ErrEmptySlice)
	}

	for i := range customers {
		if err := validateCustomer(&customers[i]); err != nil {
			return fmt.Errorf("customer at index %d: %w", i, err)
		}
	}
	return nil
}

// validateCustomer validates a single customer.
func validateCustomer(c *model.Customer) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCustomer)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCustomer)
	}
	for j := range c.Transactions {
		if err := validateTransaction(&c.Transactions[j]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", j, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

// validateDateRange rejects a range that ends before it starts.
func validateDateRange(r *DateRange) error {
	if r == nil {
		return nil
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, r.End, r.Start)
	}
	return nil
}
