// Package model defines the core domain models used throughout the application.
package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single purchase made by a customer.
type Transaction struct {
	Date   time.Time       `json:"date"`
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Items  int             `json:"items"`
}

// Customer is a stable customer identity with its purchase history.
// Transactions are not required to be sorted.
type Customer struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Transactions []Transaction `json:"transactions"`
}

// SortedTransactions returns a copy of the customer's transactions ordered
// oldest first. The receiver is left untouched.
func (c *Customer) SortedTransactions() []Transaction {
	sorted := make([]Transaction, len(c.Transactions))
	copy(sorted, c.Transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// WithTransactions returns a shallow copy of the customer carrying the given
// transactions instead of its own.
func (c Customer) WithTransactions(txns []Transaction) Customer {
	c.Transactions = txns
	return c
}
