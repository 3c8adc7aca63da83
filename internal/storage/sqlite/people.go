package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

const personColumns = "id, name, relationship, email, phone, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func scanPerson(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	var relationship, email, phone sql.NullString
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &relationship, &email, &phone, &createdAt); err != nil {
		return nil, err
	}
	p.Relationship = fromNullString(relationship)
	p.Email = fromNullString(email)
	p.Phone = fromNullString(phone)
	p.CreatedAt = fromUnix(createdAt)
	return p, nil
}

// ListPeople returns all people ordered by ID.
func (s *SQLiteStore) ListPeople(ctx context.Context) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+personColumns+" FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}

	return people, nil
}

// GetPerson retrieves a person by ID.
func (s *SQLiteStore) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	return getPerson(ctx, s.db, id)
}

func getPerson(ctx context.Context, q queryRower, id int64) (*models.Person, error) {
	p, err := scanPerson(q.QueryRowContext(ctx, "SELECT "+personColumns+" FROM people WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// CreatePerson inserts a new person into the database.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.CreatedAt.IsZero() {
		person.CreatedAt = s.timestamp()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO people (name, relationship, email, phone, created_at) VALUES (?, ?, ?, ?, ?)",
		person.Name,
		nullString(person.Relationship),
		nullString(person.Email),
		nullString(person.Phone),
		person.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read person id: %w", err)
	}
	person.ID = id

	return nil
}

// UpdatePerson applies a partial update inside a transaction.
func (s *SQLiteStore) UpdatePerson(ctx context.Context, id int64, patch models.PersonPatch) (*models.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getPerson(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = tx.ExecContext(ctx,
		"UPDATE people SET name = ?, relationship = ?, email = ?, phone = ? WHERE id = ?",
		updated.Name,
		nullString(updated.Relationship),
		nullString(updated.Email),
		nullString(updated.Phone),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update person: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &updated, nil
}

// DeletePerson removes a person and their transactions atomically.
func (s *SQLiteStore) DeletePerson(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Does not depend on the foreign_keys pragma being set.
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE person_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete person's transactions: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
