package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

// DateRange limits queries to transactions dated within [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// RangeOf returns the date range covered by a period.
func RangeOf(p model.Period) *DateRange {
	return &DateRange{Start: p.Start, End: p.End}
}

// SaveCustomers upserts customers and their transactions in one database
// transaction. Existing transactions with the same id are replaced.
func (s *SQLiteStorage) SaveCustomers(ctx context.Context, customers []model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCustomers(customers); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	customerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customers (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare customer statement: %w", err)
	}
	defer func() { _ = customerStmt.Close() }()

	txnStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions (customer_id, id, date, amount, items)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction statement: %w", err)
	}
	defer func() { _ = txnStmt.Close() }()

	for _, c := range customers {
		if _, err := customerStmt.ExecContext(ctx, c.ID, c.Name, c.Email); err != nil {
			return fmt.Errorf("failed to save customer %s: %w", c.ID, err)
		}
		for _, txn := range c.Transactions {
			if _, err := txnStmt.ExecContext(ctx,
				c.ID,
				txn.ID,
				formatTimestamp(txn.Date),
				txn.Amount.String(),
				txn.Items,
			); err != nil {
				return fmt.Errorf("failed to save transaction %s for customer %s: %w", txn.ID, c.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetCustomers loads customers with their transactions, oldest first, in the
// order they were first saved. With a date range only customers that have
// transactions inside it are returned, carrying just those transactions.
func (s *SQLiteStorage) GetCustomers(ctx context.Context, dateRange *DateRange) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDateRange(dateRange); err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.name, c.email, t.id, t.date, t.amount, t.items
		FROM customers c
		LEFT JOIN transactions t ON t.customer_id = c.id`
	var args []any
	if dateRange != nil {
		query = `
		SELECT c.id, c.name, c.email, t.id, t.date, t.amount, t.items
		FROM customers c
		JOIN transactions t ON t.customer_id = c.id
		WHERE t.date >= ? AND t.date <= ?`
		args = append(args, formatTimestamp(dateRange.Start), formatTimestamp(dateRange.End))
	}
	query += `
		ORDER BY c.rowid, t.date, t.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	customers := []model.Customer{}
	for rows.Next() {
		var (
			id, name, email        string
			txnID, txnDate, txnAmt sql.NullString
			txnItems               sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &email, &txnID, &txnDate, &txnAmt, &txnItems); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}

		if len(customers) == 0 || customers[len(customers)-1].ID != id {
			customers = append(customers, model.Customer{ID: id, Name: name, Email: email})
		}
		if !txnID.Valid {
			continue
		}

		txn, err := scanTransaction(txnID.String, txnDate.String, txnAmt.String, txnItems.Int64)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", id, err)
		}
		last := &customers[len(customers)-1]
		last.Transactions = append(last.Transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func scanTransaction(id, date, amount string, items int64) (model.Transaction, error) {
	parsedDate, err := parseTimestamp(date)
	if err != nil {
		return model.Transaction{}, err
	}
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: bad amount %q", ErrCorruptRow, amount)
	}
	return model.Transaction{
		ID:     id,
		Date:   parsedDate,
		Amount: parsedAmount,
		Items:  int(items),
	}, nil
}

// CustomerCount returns the number of stored customers.
func (s *SQLiteStorage) CustomerCount(ctx context.Context) (int, error) {
	return s.count(ctx, "customers")
}

// TransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) TransactionCount(ctx context.Context) (int, error) {
	return s.count(ctx, "transactions")
}

func (s *SQLiteStorage) count(ctx context.Context, table string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// TransactionDateRange returns the dates of the earliest and latest stored
// transactions, or common.ErrNotFound when there are none.
func (s *SQLiteStorage) TransactionDateRange(ctx context.Context) (DateRange, error) {
	if err := validateContext(ctx); err != nil {
		return DateRange{}, err
	}

	var earliest, latest sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM transactions`).Scan(&earliest, &latest)
	if err != nil {
		return DateRange{}, fmt.Errorf("failed to get transaction date range: %w", err)
	}
	if !earliest.Valid || !latest.Valid {
		return DateRange{}, common.ErrNotFound
	}

	start, err := parseTimestamp(earliest.String)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseTimestamp(latest.String)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: end}, nil
}

// DeleteCustomer removes a customer and all of its transactions.
func (s *SQLiteStorage) DeleteCustomer(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteAll removes every customer, transaction and saved report.
func (s *SQLiteStorage) DeleteAll(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"transactions", "customers", "reports"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
