// Package service implements the debt ledger use cases on top of a
// storage.Store: input validation, persistence and balance queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// LedgerService manages people and transactions and answers balance queries.
type LedgerService struct {
	store    storage.Store
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithClock overrides the clock used to stamp summaries.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, logger *slog.Logger, opts ...Option) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LedgerService{
		store:    store,
		logger:   logger.With("component", "ledger"),
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPeople returns every person.
func (s *LedgerService) ListPeople(ctx context.Context) ([]models.Person, error) {
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "ListPeople failed", "error", err)
		return nil, err
	}
	return people, nil
}

// GetPerson returns one person or ErrNotFound.
func (s *LedgerService) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	person, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "GetPerson", err)
	}
	return person, nil
}

// CreatePerson validates and stores a new person.
func (s *LedgerService) CreatePerson(ctx context.Context, input PersonInput) (*models.Person, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Relationship = strings.TrimSpace(input.Relationship)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if err := s.checkStruct(input).OrNil(); err != nil {
		return nil, err
	}

	person := &models.Person{
		Name:         input.Name,
		Relationship: optional(input.Relationship),
		Email:        optional(input.Email),
		Phone:        optional(input.Phone),
	}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		s.logger.ErrorContext(ctx, "CreatePerson failed", "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Person created", "person_id", person.ID)
	return person, nil
}

// UpdatePerson applies a validated partial update.
func (s *LedgerService) UpdatePerson(ctx context.Context, id int64, update PersonUpdate) (*models.Person, error) {
	update.Name = trimPtr(update.Name)
	update.Relationship = trimPtr(update.Relationship)
	update.Email = trimPtr(update.Email)
	update.Phone = trimPtr(update.Phone)

	if err := s.checkStruct(update).OrNil(); err != nil {
		return nil, err
	}

	person, err := s.store.UpdatePerson(ctx, id, models.PersonPatch{
		Name:         update.Name,
		Relationship: update.Relationship,
		Email:        update.Email,
		Phone:        update.Phone,
	})
	if err != nil {
		return nil, s.storeError(ctx, "UpdatePerson", err)
	}

	s.logger.InfoContext(ctx, "Person updated", "person_id", id)
	return person, nil
}

// DeletePerson removes a person together with all of their transactions.
func (s *LedgerService) DeletePerson(ctx context.Context, id int64) error {
	if err := s.store.DeletePerson(ctx, id); err != nil {
		return s.storeError(ctx, "DeletePerson", err)
	}
	s.logger.InfoContext(ctx, "Person deleted", "person_id", id)
	return nil
}

// ListTransactions returns every transaction joined with its person, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context) ([]models.TransactionWithPerson, error) {
	people, transactions, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.withPeople(ctx, people, transactions), nil
}

// ListTransactionsByPerson returns one person's transactions, newest first.
// Returns ErrNotFound if the person does not exist.
func (s *LedgerService) ListTransactionsByPerson(ctx context.Context, personID int64) ([]models.TransactionWithPerson, error) {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.store.ListTransactionsByPerson(ctx, personID)
	if err != nil {
		s.logger.ErrorContext(ctx, "ListTransactionsByPerson failed", "person_id", personID, "error", err)
		return nil, err
	}
	return s.withPeople(ctx, []models.Person{*person}, transactions), nil
}

// GetTransaction returns one transaction or ErrNotFound.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "GetTransaction", err)
	}
	return t, nil
}

// CreateTransaction validates and records a new transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	input.Description = strings.TrimSpace(input.Description)

	verr := s.checkStruct(input)
	checkAmount(verr, input.Amount)
	checkDate(verr, input.Date)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		PersonID:       input.PersonID,
		Amount:         input.Amount,
		Description:    input.Description,
		Date:           input.Date.UTC(),
		IsPersonDebtor: *input.IsPersonDebtor,
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, s.storeError(ctx, "CreateTransaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"person_id", t.PersonID,
		"amount", t.Amount.StringFixed(2),
		"is_person_debtor", t.IsPersonDebtor,
	)
	return t, nil
}

// UpdateTransaction applies a validated partial update.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, update TransactionUpdate) (*models.Transaction, error) {
	update.Description = trimPtr(update.Description)

	verr := s.checkStruct(update)
	if update.Amount != nil {
		checkAmount(verr, *update.Amount)
	}
	if update.Date != nil {
		checkDate(verr, *update.Date)
		utc := update.Date.UTC()
		update.Date = &utc
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	t, err := s.store.UpdateTransaction(ctx, id, models.TransactionPatch{
		PersonID:       update.PersonID,
		Amount:         update.Amount,
		Description:    update.Description,
		Date:           update.Date,
		IsPersonDebtor: update.IsPersonDebtor,
	})
	if err != nil {
		return nil, s.storeError(ctx, "UpdateTransaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", "transaction_id", id)
	return t, nil
}

// DeleteTransaction removes a transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return s.storeError(ctx, "DeleteTransaction", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// snapshot loads people and transactions concurrently.
func (s *LedgerService) snapshot(ctx context.Context) ([]models.Person, []models.Transaction, error) {
	var (
		people       []models.Person
		transactions []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		people, err = s.store.ListPeople(gctx)
		if err != nil {
			return fmt.Errorf("load people: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transactions, err = s.store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Snapshot failed", "error", err)
		return nil, nil, err
	}
	return people, transactions, nil
}

func (s *LedgerService) withPeople(ctx context.Context, people []models.Person, transactions []models.Transaction) []models.TransactionWithPerson {
	byID := make(map[int64]models.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	out := make([]models.TransactionWithPerson, 0, len(transactions))
	for _, t := range transactions {
		p, ok := byID[t.PersonID]
		if !ok {
			// Only possible if a delete raced between the two snapshot reads.
			s.logger.WarnContext(ctx, "Skipping transaction without person", "transaction_id", t.ID, "person_id", t.PersonID)
			continue
		}
		out = append(out, models.TransactionWithPerson{Transaction: t, Person: p})
	}
	return out
}

// storeError turns a reference to a missing person into a ValidationError
// and logs unexpected failures. ErrNotFound passes through unchanged.
func (s *LedgerService) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrPersonNotFound):
		return invalid("personId", "person does not exist")
	case errors.Is(err, storage.ErrNotFound):
		return err
	default:
		s.logger.ErrorContext(ctx, op+" failed", "error", err)
		return err
	}
}
