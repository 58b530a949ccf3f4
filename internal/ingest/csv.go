package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

// ColumnMapping names the CSV header used for each field. Email and items are
// optional.
type ColumnMapping struct {
	CustomerID        string `json:"customerId" mapstructure:"customer_id"`
	CustomerName      string `json:"customerName" mapstructure:"customer_name"`
	CustomerEmail     string `json:"customerEmail" mapstructure:"customer_email"`
	TransactionID     string `json:"transactionId" mapstructure:"transaction_id"`
	TransactionDate   string `json:"transactionDate" mapstructure:"transaction_date"`
	TransactionAmount string `json:"transactionAmount" mapstructure:"transaction_amount"`
	TransactionItems  string `json:"transactionItems" mapstructure:"transaction_items"`
}

// Validate reports every required field that has no column.
func (m ColumnMapping) Validate() error {
	var missing []string
	for _, f := range []struct{ label, column string }{
		{"customer id", m.CustomerID},
		{"customer name", m.CustomerName},
		{"transaction id", m.TransactionID},
		{"transaction date", m.TransactionDate},
		{"transaction amount", m.TransactionAmount},
	} {
		if f.column == "" {
			missing = append(missing, f.label)
		}
	}
	if len(missing) > 0 {
		return common.InvalidConfigf("unmapped required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Merge fills the empty fields of m from other.
func (m ColumnMapping) Merge(other ColumnMapping) ColumnMapping {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return ColumnMapping{
		CustomerID:        pick(m.CustomerID, other.CustomerID),
		CustomerName:      pick(m.CustomerName, other.CustomerName),
		CustomerEmail:     pick(m.CustomerEmail, other.CustomerEmail),
		TransactionID:     pick(m.TransactionID, other.TransactionID),
		TransactionDate:   pick(m.TransactionDate, other.TransactionDate),
		TransactionAmount: pick(m.TransactionAmount, other.TransactionAmount),
		TransactionItems:  pick(m.TransactionItems, other.TransactionItems),
	}
}

// headerAliases lists normalized header names recognized for each field.
var headerAliases = map[string][]string{
	"customerId":        {"customerid", "custid", "clientid", "customer"},
	"customerName":      {"customername", "name", "fullname", "clientname"},
	"customerEmail":     {"customeremail", "email", "emailaddress"},
	"transactionId":     {"transactionid", "orderid", "txnid", "invoiceid", "id"},
	"transactionDate":   {"transactiondate", "date", "orderdate", "purchasedate", "createdat"},
	"transactionAmount": {"transactionamount", "amount", "total", "ordertotal", "revenue"},
	"transactionItems":  {"transactionitems", "items", "quantity", "qty", "itemcount"},
}

func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// DetectMapping guesses a column mapping from a header row. Fields without a
// recognizable column are left empty.
func DetectMapping(header []string) ColumnMapping {
	byName := make(map[string]string, len(header))
	for _, h := range header {
		norm := normalizeHeader(h)
		if _, seen := byName[norm]; !seen {
			byName[norm] = h
		}
	}
	find := func(field string) string {
		for _, alias := range headerAliases[field] {
			if h, ok := byName[alias]; ok {
				return h
			}
		}
		return ""
	}
	return ColumnMapping{
		CustomerID:        find("customerId"),
		CustomerName:      find("customerName"),
		CustomerEmail:     find("customerEmail"),
		TransactionID:     find("transactionId"),
		TransactionDate:   find("transactionDate"),
		TransactionAmount: find("transactionAmount"),
		TransactionItems:  find("transactionItems"),
	}
}

// columnIndex resolves a mapping against a header row.
type columnIndex struct {
	customerID, customerName, customerEmail int
	txnID, txnDate, txnAmount, txnItems     int
}

func resolveColumns(header []string, m ColumnMapping) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.TrimSpace(h)] = i
	}
	var missing []string
	lookup := func(column string) int {
		if column == "" {
			return -1
		}
		i, ok := positions[column]
		if !ok {
			missing = append(missing, column)
			return -1
		}
		return i
	}
	idx := columnIndex{
		customerID:    lookup(m.CustomerID),
		customerName:  lookup(m.CustomerName),
		customerEmail: lookup(m.CustomerEmail),
		txnID:         lookup(m.TransactionID),
		txnDate:       lookup(m.TransactionDate),
		txnAmount:     lookup(m.TransactionAmount),
		txnItems:      lookup(m.TransactionItems),
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("%w: columns not found in header: %s",
			common.ErrInvalidData, strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadCSV groups transaction rows into customers using the given mapping.
// Rows with a missing id, an unparseable date or a non-positive amount are
// skipped and logged. Customers keep first-seen order and their transactions
// are sorted oldest first.
func ReadCSV(r io.Reader, m ColumnMapping) ([]model.Customer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv must contain a header row and at least one data row", common.ErrInvalidData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	idx, err := resolveColumns(header, m)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int)
	var customers []model.Customer
	line := 1
	skipped := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		customerID := field(record, idx.customerID)
		txnID := field(record, idx.txnID)
		dateStr := field(record, idx.txnDate)
		if customerID == "" || txnID == "" || dateStr == "" {
			slog.Warn("Skipping row with missing fields", "line", line)
			skipped++
			continue
		}

		amount, err := decimal.NewFromString(field(record, idx.txnAmount))
		if err != nil || !amount.IsPositive() {
			slog.Warn("Skipping row with invalid amount", "line", line, "amount", field(record, idx.txnAmount))
			skipped++
			continue
		}

		date, err := ParseDate(dateStr)
		if err != nil {
			slog.Warn("Skipping row with invalid date", "line", line, "date", dateStr)
			skipped++
			continue
		}

		items := defaultItems
		if raw := field(record, idx.txnItems); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				items = n
			}
		}

		pos, ok := byID[customerID]
		if !ok {
			pos = len(customers)
			byID[customerID] = pos
			customers = append(customers, model.Customer{
				ID:    customerID,
				Name:  field(record, idx.customerName),
				Email: defaultEmail(field(record, idx.customerEmail), customerID),
			})
		}
		customers[pos].Transactions = append(customers[pos].Transactions, model.Transaction{
			ID:     txnID,
			Date:   date,
			Amount: amount,
			Items:  items,
		})
	}

	if len(customers) == 0 {
		return nil, fmt.Errorf("%w: no valid rows found", common.ErrInvalidData)
	}
	for i := range customers {
		customers[i].Transactions = customers[i].SortedTransactions()
	}

	slog.Info("Parsed csv",
		"customers", len(customers),
		"rows", line-1,
		"skipped", skipped)

	return customers, nil
}
