// Package ingest reads customer histories from JSON and CSV sources and writes
// them back out as JSON.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

const defaultItems = 1

type jsonTransaction struct {
	Amount *decimal.Decimal `json:"amount"`
	Items  *int             `json:"items"`
	ID     string           `json:"id"`
	Date   string           `json:"date"`
}

type jsonCustomer struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Transactions []jsonTransaction `json:"transactions"`
}

// ReadJSON decodes an array of customers. Every customer needs an id, a name
// and a transactions array, and every transaction a date and a positive
// amount. All problems are counted before an error is returned.
func ReadJSON(r io.Reader) ([]model.Customer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer data: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: root element must be an array", common.ErrInvalidData)
	}

	var raw []jsonCustomer
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidData, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no customers found", common.ErrInvalidData)
	}

	invalidCustomers := 0
	for _, c := range raw {
		if c.ID == "" || c.Name == "" || c.Transactions == nil {
			invalidCustomers++
		}
	}
	if invalidCustomers > 0 {
		return nil, fmt.Errorf("%w: %d customers are missing required fields (id, name, or transactions array)",
			common.ErrInvalidData, invalidCustomers)
	}

	customers := make([]model.Customer, 0, len(raw))
	invalidTransactions := 0
	for _, rc := range raw {
		c := model.Customer{
			ID:           rc.ID,
			Name:         rc.Name,
			Email:        defaultEmail(rc.Email, rc.ID),
			Transactions: make([]model.Transaction, 0, len(rc.Transactions)),
		}
		for i, rt := range rc.Transactions {
			txn, ok := convertTransaction(rt, c.ID, i)
			if !ok {
				invalidTransactions++
				continue
			}
			c.Transactions = append(c.Transactions, txn)
		}
		customers = append(customers, c)
	}
	if invalidTransactions > 0 {
		return nil, fmt.Errorf("%w: %d transactions are missing required fields (date or positive amount)",
			common.ErrInvalidData, invalidTransactions)
	}

	return customers, nil
}

func convertTransaction(rt jsonTransaction, customerID string, index int) (model.Transaction, bool) {
	if rt.Date == "" || rt.Amount == nil || !rt.Amount.IsPositive() {
		return model.Transaction{}, false
	}
	date, err := ParseDate(rt.Date)
	if err != nil {
		return model.Transaction{}, false
	}

	id := rt.ID
	if id == "" {
		id = fmt.Sprintf("%s_%d", customerID, index+1)
	}
	items := defaultItems
	if rt.Items != nil && *rt.Items > 0 {
		items = *rt.Items
	}

	return model.Transaction{
		ID:     id,
		Date:   date,
		Amount: *rt.Amount,
		Items:  items,
	}, true
}

func defaultEmail(email, id string) string {
	if email != "" {
		return email
	}
	return id + "@example.com"
}

// dateLayouts are tried in order when parsing transaction dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
}

// ParseDate parses a transaction date in any of the supported layouts.
// Dates without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// WriteJSON encodes customers as an indented JSON array.
func WriteJSON(w io.Writer, customers []model.Customer) error {
	if customers == nil {
		customers = []model.Customer{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(customers); err != nil {
		return fmt.Errorf("failed to encode customers: %w", err)
	}
	return nil
}
