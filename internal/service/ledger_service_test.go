package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/storage/memory"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLedgerService(store, logger)
}

func ptr[T any](v T) *T { return &v }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func mustCreatePerson(t *testing.T, svc *LedgerService, name string) int64 {
	t.Helper()
	p, err := svc.CreatePerson(context.Background(), PersonInput{Name: name})
	if err != nil {
		t.Fatalf("CreatePerson(%s) failed: %v", name, err)
	}
	return p.ID
}

func mustCreateTransaction(t *testing.T, svc *LedgerService, personID int64, amt string, debtor bool) int64 {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), TransactionInput{
		PersonID:       personID,
		Amount:         amount(amt),
		Description:    "test",
		Date:           march,
		IsPersonDebtor: ptr(debtor),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	return tx.ID
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range verr.Fields {
		if f.Field == field {
			return
		}
	}
	t.Errorf("expected error on field %q, got %+v", field, verr.Fields)
}

func TestCreatePerson(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePerson(ctx, PersonInput{
		Name:         "  Alice  ",
		Relationship: "friend",
		Email:        "alice@example.com",
	})
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if p.Name != "Alice" {
		t.Errorf("name: expected 'Alice', got '%s'", p.Name)
	}
	if p.Relationship == nil || *p.Relationship != "friend" {
		t.Errorf("relationship: expected 'friend', got %v", p.Relationship)
	}
	if p.Phone != nil {
		t.Errorf("phone: expected nil, got %q", *p.Phone)
	}
}

func TestCreatePerson_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input PersonInput
		field string
	}{
		{name: "missing name", input: PersonInput{}, field: "name"},
		{name: "blank name", input: PersonInput{Name: "   "}, field: "name"},
		{name: "bad email", input: PersonInput{Name: "Bob", Email: "not-an-email"}, field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.CreatePerson(context.Background(), tt.input)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestUpdatePerson(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePerson(ctx, PersonInput{Name: "Carol", Phone: "555-0100"})
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}

	updated, err := svc.UpdatePerson(ctx, created.ID, PersonUpdate{
		Relationship: ptr("sister"),
		Phone:        ptr(""),
	})
	if err != nil {
		t.Fatalf("UpdatePerson failed: %v", err)
	}
	if updated.Name != "Carol" {
		t.Errorf("name changed unexpectedly: %s", updated.Name)
	}
	if updated.Relationship == nil || *updated.Relationship != "sister" {
		t.Errorf("relationship: expected 'sister', got %v", updated.Relationship)
	}
	if updated.Phone != nil {
		t.Errorf("expected phone cleared, got %q", *updated.Phone)
	}

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := svc.UpdatePerson(ctx, created.ID, PersonUpdate{Name: ptr("")})
		assertFieldError(t, err, "name")
	})

	t.Run("unknown person", func(t *testing.T) {
		_, err := svc.UpdatePerson(ctx, 999, PersonUpdate{Name: ptr("Nobody")})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCreateTransaction_Validation(t *testing.T) {
	svc := newTestService(t)
	personID := mustCreatePerson(t, svc, "Dave")

	valid := func() TransactionInput {
		return TransactionInput{
			PersonID:       personID,
			Amount:         amount("10.00"),
			Description:    "Lunch",
			Date:           march,
			IsPersonDebtor: ptr(true),
		}
	}

	tests := []struct {
		name   string
		mutate func(*TransactionInput)
		field  string
	}{
		{name: "zero amount", mutate: func(in *TransactionInput) { in.Amount = decimal.Zero }, field: "amount"},
		{name: "negative amount", mutate: func(in *TransactionInput) { in.Amount = amount("-5") }, field: "amount"},
		{name: "sub-cent amount", mutate: func(in *TransactionInput) { in.Amount = amount("1.001") }, field: "amount"},
		{name: "tiny exponent", mutate: func(in *TransactionInput) { in.Amount = decimal.New(1, -20000000) }, field: "amount"},
		{name: "huge exponent", mutate: func(in *TransactionInput) { in.Amount = decimal.New(1, 20000000) }, field: "amount"},
		{name: "missing description", mutate: func(in *TransactionInput) { in.Description = " " }, field: "description"},
		{name: "missing date", mutate: func(in *TransactionInput) { in.Date = time.Time{} }, field: "date"},
		{name: "missing direction", mutate: func(in *TransactionInput) { in.IsPersonDebtor = nil }, field: "isPersonDebtor"},
		{name: "missing person", mutate: func(in *TransactionInput) { in.PersonID = 0 }, field: "personId"},
		{name: "unknown person", mutate: func(in *TransactionInput) { in.PersonID = 404 }, field: "personId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := svc.CreateTransaction(context.Background(), in)
			assertFieldError(t, err, tt.field)
		})
	}

	t.Run("valid input", func(t *testing.T) {
		tx, err := svc.CreateTransaction(context.Background(), valid())
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if tx.ID == 0 {
			t.Error("expected non-zero ID")
		}
	})
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		name  string
		value decimal.Decimal
		ok    bool
	}{
		{name: "cents", value: amount("12.34"), ok: true},
		{name: "trailing zeros", value: amount("10.0000"), ok: true},
		{name: "just below max", value: amount("99999999.99"), ok: true},
		{name: "max", value: amount("100000000"), ok: false},
		{name: "sub-cent", value: amount("0.001"), ok: false},
		{name: "tiny exponent", value: decimal.New(1, -20000000), ok: false},
		{name: "huge exponent", value: decimal.New(1, 20000000), ok: false},
		{name: "wide coefficient", value: amount("123456789012345678901234567890123456789012345678901234567890"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			verr := &ValidationError{}
			checkAmount(verr, tt.value)
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("checkAmount took %v", elapsed)
			}
			if got := len(verr.Fields) == 0; got != tt.ok {
				t.Errorf("checkAmount(%s) ok = %v, want %v (%+v)", tt.name, got, tt.ok, verr.Fields)
			}
		})
	}
}

func TestUpdateTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := mustCreatePerson(t, svc, "Alice")
	bob := mustCreatePerson(t, svc, "Bob")
	txID := mustCreateTransaction(t, svc, alice, "20.00", true)

	updated, err := svc.UpdateTransaction(ctx, txID, TransactionUpdate{
		PersonID:       &bob,
		IsPersonDebtor: ptr(false),
	})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if updated.PersonID != bob || updated.IsPersonDebtor {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if !updated.Amount.Equal(amount("20")) {
		t.Errorf("amount changed unexpectedly: %s", updated.Amount)
	}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, txID, TransactionUpdate{Amount: ptr(decimal.Zero)})
		assertFieldError(t, err, "amount")
	})

	t.Run("rejects unknown person", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, txID, TransactionUpdate{PersonID: ptr(int64(555))})
		assertFieldError(t, err, "personId")
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, 999, TransactionUpdate{Description: ptr("x")})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListTransactionsIncludesPerson(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := mustCreatePerson(t, svc, "Alice")
	bob := mustCreatePerson(t, svc, "Bob")
	mustCreateTransaction(t, svc, alice, "1", true)
	mustCreateTransaction(t, svc, bob, "2", false)

	all, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
	for _, tx := range all {
		if tx.Person.ID != tx.PersonID {
			t.Errorf("transaction %d joined with person %d, want %d", tx.ID, tx.Person.ID, tx.PersonID)
		}
	}

	mine, err := svc.ListTransactionsByPerson(ctx, alice)
	if err != nil {
		t.Fatalf("ListTransactionsByPerson failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Person.Name != "Alice" {
		t.Errorf("expected Alice's single transaction, got %+v", mine)
	}

	if _, err := svc.ListTransactionsByPerson(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown person, got %v", err)
	}
}
