package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

const transactionColumns = "id, person_id, amount, description, date, is_person_debtor, created_at"

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var date, createdAt int64
	if err := row.Scan(&t.ID, &t.PersonID, &t.Amount, &t.Description, &date, &t.IsPersonDebtor, &createdAt); err != nil {
		return nil, err
	}
	t.Date = fromUnix(date)
	t.CreatedAt = fromUnix(createdAt)
	return t, nil
}

// ListTransactions returns all transactions, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date DESC, id DESC")
}

// ListTransactionsByPerson returns one person's transactions, newest first.
func (s *SQLiteStore) ListTransactionsByPerson(ctx context.Context, personID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE person_id = ? ORDER BY date DESC, id DESC",
		personID,
	)
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, id)
}

func getTransaction(ctx context.Context, q queryRower, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// CreateTransaction persists a new transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.timestamp()
	}
	// Dates are stored as unix seconds.
	t.Date = fromUnix(t.Date.Unix())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := personExists(ctx, tx, t.PersonID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (person_id, amount, description, date, is_person_debtor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.PersonID, t.Amount.StringFixed(2), t.Description, t.Date.Unix(), t.IsPersonDebtor, t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	t.ID = id
	return nil
}

// UpdateTransaction applies a partial update inside a transaction.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getTransaction(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	updated.Date = fromUnix(updated.Date.Unix())

	if patch.PersonID != nil {
		if err := personExists(ctx, tx, updated.PersonID); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET person_id = ?, amount = ?, description = ?, date = ?, is_person_debtor = ?
		 WHERE id = ?`,
		updated.PersonID, updated.Amount.StringFixed(2), updated.Description, updated.Date.Unix(), updated.IsPersonDebtor, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &updated, nil
}

// DeleteTransaction removes a transaction by ID.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func personExists(ctx context.Context, q queryRower, personID int64) error {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM people WHERE id = ?", personID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("person %d: %w", personID, storage.ErrPersonNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check person existence: %w", err)
	}
	return nil
}
