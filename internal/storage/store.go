// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersonNotFound is returned when a transaction references a person
	// that does not exist. It wraps ErrNotFound.
	ErrPersonNotFound = fmt.Errorf("person %w", ErrNotFound)
)

// Store defines the interface for people and transaction storage.
// This abstraction allows swapping storage backends (memory, SQLite,
// PostgreSQL) without changing the service layer.
//
// Implementations must:
//   - assign unique, increasing integer IDs on create
//   - delete a person's transactions in the same atomic step as the person
//   - return an error wrapping ErrNotFound for unknown IDs
type Store interface {
	// ListPeople returns all people ordered by ID.
	ListPeople(ctx context.Context) ([]models.Person, error)

	// GetPerson retrieves a person by ID.
	GetPerson(ctx context.Context, id int64) (*models.Person, error)

	// CreatePerson persists a new person.
	// The ID and CreatedAt fields are populated by the store.
	CreatePerson(ctx context.Context, person *models.Person) error

	// UpdatePerson applies a partial update and returns the stored result.
	UpdatePerson(ctx context.Context, id int64, patch models.PersonPatch) (*models.Person, error)

	// DeletePerson removes a person together with all of their transactions.
	DeletePerson(ctx context.Context, id int64) error

	// ListTransactions returns all transactions, newest first.
	ListTransactions(ctx context.Context) ([]models.Transaction, error)

	// ListTransactionsByPerson returns the transactions of one person, newest first.
	// An unknown person yields an empty list.
	ListTransactionsByPerson(ctx context.Context, personID int64) ([]models.Transaction, error)

	// GetTransaction retrieves a transaction by ID.
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)

	// CreateTransaction persists a new transaction.
	// The ID and CreatedAt fields are populated by the store.
	// Returns ErrPersonNotFound if PersonID does not exist.
	CreateTransaction(ctx context.Context, t *models.Transaction) error

	// UpdateTransaction applies a partial update and returns the stored result.
	// Returns ErrPersonNotFound if the patch moves it to an unknown person.
	UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error)

	// DeleteTransaction removes a transaction by ID.
	DeleteTransaction(ctx context.Context, id int64) error

	// Close releases any resources held by the store.
	Close() error
}
