// Package memory provides an in-process implementation of storage.Store.
// Data lives only as long as the process; it backs tests and local demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps people and transactions in maps guarded by a single lock.
type Store struct {
	mu           sync.RWMutex
	people       map[int64]models.Person
	transactions map[int64]models.Transaction
	nextPersonID int64
	nextTxID     int64
	now          func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		people:       make(map[int64]models.Person),
		transactions: make(map[int64]models.Transaction),
		nextPersonID: 1,
		nextTxID:     1,
		now:          time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ListPeople returns all people ordered by ID.
func (s *Store) ListPeople(ctx context.Context) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]models.Person, 0, len(s.people))
	for _, p := range s.people {
		people = append(people, clonePerson(p))
	}
	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })
	return people, nil
}

// GetPerson retrieves a person by ID.
func (s *Store) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}
	p = clonePerson(p)
	return &p, nil
}

// CreatePerson stores a new person and assigns its ID.
func (s *Store) CreatePerson(ctx context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	person.ID = s.nextPersonID
	s.nextPersonID++
	if person.CreatedAt.IsZero() {
		person.CreatedAt = s.now().UTC()
	}
	s.people[person.ID] = clonePerson(*person)
	return nil
}

// UpdatePerson applies a partial update.
func (s *Store) UpdatePerson(ctx context.Context, id int64, patch models.PersonPatch) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}
	p = clonePerson(patch.Apply(p))
	s.people[id] = p
	p = clonePerson(p)
	return &p, nil
}

// DeletePerson removes a person and all of their transactions under one lock.
func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return fmt.Errorf("person %d: %w", id, storage.ErrNotFound)
	}
	for txID, t := range s.transactions {
		if t.PersonID == id {
			delete(s.transactions, txID)
		}
	}
	delete(s.people, id)
	return nil
}

// ListTransactions returns all transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.selectTransactions(func(models.Transaction) bool { return true }), nil
}

// ListTransactionsByPerson returns one person's transactions, newest first.
func (s *Store) ListTransactionsByPerson(ctx context.Context, personID int64) ([]models.Transaction, error) {
	return s.selectTransactions(func(t models.Transaction) bool { return t.PersonID == personID }), nil
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return &t, nil
}

// CreateTransaction stores a new transaction and assigns its ID.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[t.PersonID]; !ok {
		return fmt.Errorf("transaction for person %d: %w", t.PersonID, storage.ErrPersonNotFound)
	}

	t.ID = s.nextTxID
	s.nextTxID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.transactions[t.ID] = *t
	return nil
}

// UpdateTransaction applies a partial update.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	t = patch.Apply(t)
	if _, ok := s.people[t.PersonID]; !ok {
		return nil, fmt.Errorf("transaction %d moved to person %d: %w", id, t.PersonID, storage.ErrPersonNotFound)
	}
	s.transactions[id] = t
	return &t, nil
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) selectTransactions(keep func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// clonePerson copies the optional fields so callers never share them with
// the map.
func clonePerson(p models.Person) models.Person {
	p.Relationship = cloneString(p.Relationship)
	p.Email = cloneString(p.Email)
	p.Phone = cloneString(p.Phone)
	return p
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
