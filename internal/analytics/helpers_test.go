package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/model"
)

var refDate = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func daysBefore(ref time.Time, days int) time.Time {
	return ref.AddDate(0, 0, -days)
}

func txn(date time.Time, amount float64) model.Transaction {
	return model.Transaction{
		ID:     fmt.Sprintf("t-%d-%s", date.Unix(), decimal.NewFromFloat(amount).String()),
		Date:   date,
		Amount: decimal.NewFromFloat(amount),
		Items:  1,
	}
}

func customer(id string, txns ...model.Transaction) model.Customer {
	return model.Customer{
		ID:           id,
		Name:         "Customer " + id,
		Email:        id + "@example.com",
		Transactions: txns,
	}
}

// spendingCustomer creates a customer with one transaction per amount, all on
// the given date.
func spendingCustomer(id string, date time.Time, amounts ...float64) model.Customer {
	txns := make([]model.Transaction, len(amounts))
	for i, a := range amounts {
		txns[i] = txn(date, a)
	}
	return customer(id, txns...)
}
