// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New connects to databaseURL and applies pending migrations.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(databaseURL string) error {
	migrateDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratepg.WithInstance(migrateDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const personColumns = "id, name, relationship, email, phone, created_at"

func scanPerson(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	var relationship, email, phone sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &relationship, &email, &phone, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Relationship = fromNullString(relationship)
	p.Email = fromNullString(email)
	p.Phone = fromNullString(phone)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// ListPeople returns all people ordered by ID.
func (s *PostgresStore) ListPeople(ctx context.Context) ([]models.Person, error) {
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
func (s *PostgresStore) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	return getPerson(ctx, s.db, id, false)
}

func getPerson(ctx context.Context, q queryRower, id int64, forUpdate bool) (*models.Person, error) {
	query := "SELECT " + personColumns + " FROM people WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	p, err := scanPerson(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// CreatePerson inserts a new person.
func (s *PostgresStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO people (name, relationship, email, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		person.Name,
		nullString(person.Relationship),
		nullString(person.Email),
		nullString(person.Phone),
		person.CreatedAt,
	).Scan(&person.ID)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// UpdatePerson applies a partial update under a row lock.
func (s *PostgresStore) UpdatePerson(ctx context.Context, id int64, patch models.PersonPatch) (*models.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getPerson(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = tx.ExecContext(ctx,
		"UPDATE people SET name = $1, relationship = $2, email = $3, phone = $4 WHERE id = $5",
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

// DeletePerson removes a person; ON DELETE CASCADE removes their
// transactions in the same statement.
func (s *PostgresStore) DeletePerson(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM people WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return expectOneRow(res, "person", id)
}

func nullString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func expectOneRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
