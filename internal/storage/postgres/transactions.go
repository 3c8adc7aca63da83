package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

const transactionColumns = "id, person_id, amount, description, date, is_person_debtor, created_at"

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	if err := row.Scan(&t.ID, &t.PersonID, &t.Amount, &t.Description, &t.Date, &t.IsPersonDebtor, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// ListTransactions returns all transactions, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date DESC, id DESC")
}

// ListTransactionsByPerson returns one person's transactions, newest first.
func (s *PostgresStore) ListTransactionsByPerson(ctx context.Context, personID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE person_id = $1 ORDER BY date DESC, id DESC",
		personID,
	)
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
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
func (s *PostgresStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, id, false)
}

func getTransaction(ctx context.Context, q queryRower, id int64, forUpdate bool) (*models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	t, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// CreateTransaction persists a new transaction.
func (s *PostgresStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the person row so a concurrent delete cannot orphan the insert.
	if _, err := getPerson(ctx, tx, t.PersonID, true); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("person %d: %w", t.PersonID, storage.ErrPersonNotFound)
		}
		return err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (person_id, amount, description, date, is_person_debtor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		t.PersonID, t.Amount.StringFixed(2), t.Description, t.Date, t.IsPersonDebtor, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateTransaction applies a partial update under a row lock.
func (s *PostgresStore) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getTransaction(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	if patch.PersonID != nil {
		if _, err := getPerson(ctx, tx, updated.PersonID, true); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("person %d: %w", updated.PersonID, storage.ErrPersonNotFound)
			}
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET person_id = $1, amount = $2, description = $3, date = $4, is_person_debtor = $5
		 WHERE id = $6`,
		updated.PersonID, updated.Amount.StringFixed(2), updated.Description, updated.Date, updated.IsPersonDebtor, id,
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
func (s *PostgresStore) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectOneRow(res, "transaction", id)
}
