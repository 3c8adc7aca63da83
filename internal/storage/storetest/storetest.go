// Package storetest holds a behavioural test suite shared by every
// storage.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// Run exercises store against the storage.Store contract.
// newStore must return an empty store; the suite closes it.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("CreatePerson assigns unique IDs", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		a := &models.Person{Name: "Alice"}
		b := &models.Person{Name: "Bob"}
		mustCreatePerson(t, store, a)
		mustCreatePerson(t, store, b)

		if a.ID == 0 || b.ID == 0 {
			t.Fatalf("expected IDs to be assigned, got %d and %d", a.ID, b.ID)
		}
		if a.ID == b.ID {
			t.Errorf("expected distinct IDs, both are %d", a.ID)
		}
		if a.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}

		people, err := store.ListPeople(ctx)
		if err != nil {
			t.Fatalf("ListPeople failed: %v", err)
		}
		if len(people) != 2 {
			t.Fatalf("expected 2 people, got %d", len(people))
		}
		if people[0].ID != a.ID || people[1].ID != b.ID {
			t.Errorf("expected people ordered by ID, got %d then %d", people[0].ID, people[1].ID)
		}
	})

	t.Run("GetPerson round trips optional fields", func(t *testing.T) {
		store := open(t, newStore)

		rel, email := "friend", "carol@example.com"
		p := &models.Person{Name: "Carol", Relationship: &rel, Email: &email}
		mustCreatePerson(t, store, p)

		got, err := store.GetPerson(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("GetPerson failed: %v", err)
		}
		if got.Name != "Carol" {
			t.Errorf("Name mismatch: got %s, want Carol", got.Name)
		}
		if got.Relationship == nil || *got.Relationship != rel {
			t.Errorf("Relationship mismatch: got %v, want %s", got.Relationship, rel)
		}
		if got.Email == nil || *got.Email != email {
			t.Errorf("Email mismatch: got %v, want %s", got.Email, email)
		}
		if got.Phone != nil {
			t.Errorf("expected nil Phone, got %q", *got.Phone)
		}
	})

	t.Run("GetPerson returns ErrNotFound", func(t *testing.T) {
		store := open(t, newStore)
		_, err := store.GetPerson(context.Background(), 12345)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdatePerson applies partial patch", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		phone := "555-0100"
		p := &models.Person{Name: "Dan", Phone: &phone}
		mustCreatePerson(t, store, p)

		name, rel, empty := "Daniel", "cousin", ""
		updated, err := store.UpdatePerson(ctx, p.ID, models.PersonPatch{Name: &name, Relationship: &rel, Phone: &empty})
		if err != nil {
			t.Fatalf("UpdatePerson failed: %v", err)
		}
		if updated.Name != "Daniel" {
			t.Errorf("Name: got %s, want Daniel", updated.Name)
		}
		if updated.Relationship == nil || *updated.Relationship != "cousin" {
			t.Errorf("Relationship: got %v, want cousin", updated.Relationship)
		}
		if updated.Phone != nil {
			t.Errorf("expected Phone cleared, got %q", *updated.Phone)
		}

		stored, err := store.GetPerson(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPerson failed: %v", err)
		}
		if stored.Name != "Daniel" || stored.Phone != nil {
			t.Errorf("update not persisted: %+v", stored)
		}
		if !stored.CreatedAt.Equal(p.CreatedAt) {
			t.Errorf("CreatedAt changed: got %v, want %v", stored.CreatedAt, p.CreatedAt)
		}

		if _, err := store.UpdatePerson(ctx, 9999, models.PersonPatch{Name: &name}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown person, got %v", err)
		}
	})

	t.Run("CreateTransaction round trips", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p := &models.Person{Name: "Eve"}
		mustCreatePerson(t, store, p)

		date := time.Date(2024, time.February, 10, 15, 30, 0, 0, time.UTC)
		tx := &models.Transaction{
			PersonID:       p.ID,
			Amount:         decimal.RequireFromString("123.45"),
			Description:    "Concert tickets",
			Date:           date,
			IsPersonDebtor: true,
		}
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if tx.ID == 0 {
			t.Fatal("expected transaction ID to be assigned")
		}

		got, err := store.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.PersonID != p.ID {
			t.Errorf("PersonID: got %d, want %d", got.PersonID, p.ID)
		}
		if !got.Amount.Equal(tx.Amount) {
			t.Errorf("Amount: got %s, want %s", got.Amount, tx.Amount)
		}
		if got.Description != "Concert tickets" {
			t.Errorf("Description: got %s", got.Description)
		}
		if !got.Date.Equal(date) {
			t.Errorf("Date: got %v, want %v", got.Date, date)
		}
		if !got.IsPersonDebtor {
			t.Error("IsPersonDebtor: got false, want true")
		}
	})

	t.Run("CreateTransaction rejects unknown person", func(t *testing.T) {
		store := open(t, newStore)
		tx := &models.Transaction{
			PersonID:    777,
			Amount:      decimal.RequireFromString("1"),
			Description: "orphan",
			Date:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		err := store.CreateTransaction(context.Background(), tx)
		if !errors.Is(err, storage.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
	})

	t.Run("UpdateTransaction applies partial patch", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p := &models.Person{Name: "Frank"}
		q := &models.Person{Name: "Grace"}
		mustCreatePerson(t, store, p)
		mustCreatePerson(t, store, q)
		tx := mustCreateTransaction(t, store, p.ID, "10.00", true, day(1))

		amount := decimal.RequireFromString("12.50")
		debtor := false
		updated, err := store.UpdateTransaction(ctx, tx.ID, models.TransactionPatch{
			PersonID:       &q.ID,
			Amount:         &amount,
			IsPersonDebtor: &debtor,
		})
		if err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}
		if updated.PersonID != q.ID || !updated.Amount.Equal(amount) || updated.IsPersonDebtor {
			t.Errorf("unexpected update result: %+v", updated)
		}
		if updated.Description != tx.Description || !updated.Date.Equal(tx.Date) {
			t.Errorf("untouched fields changed: %+v", updated)
		}

		missing := int64(4242)
		if _, err := store.UpdateTransaction(ctx, tx.ID, models.TransactionPatch{PersonID: &missing}); !errors.Is(err, storage.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
		if _, err := store.UpdateTransaction(ctx, 999, models.TransactionPatch{Amount: &amount}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListTransactions newest first and by person", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p := &models.Person{Name: "Heidi"}
		q := &models.Person{Name: "Ivan"}
		mustCreatePerson(t, store, p)
		mustCreatePerson(t, store, q)
		mustCreateTransaction(t, store, p.ID, "1", true, day(1))
		mustCreateTransaction(t, store, p.ID, "2", true, day(3))
		mustCreateTransaction(t, store, q.ID, "3", false, day(2))

		all, err := store.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].Date.After(all[i-1].Date) {
				t.Errorf("transactions not newest first at index %d", i)
			}
		}

		mine, err := store.ListTransactionsByPerson(ctx, p.ID)
		if err != nil {
			t.Fatalf("ListTransactionsByPerson failed: %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("expected 2 transactions for person, got %d", len(mine))
		}

		none, err := store.ListTransactionsByPerson(ctx, 5555)
		if err != nil {
			t.Fatalf("ListTransactionsByPerson for unknown person failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no transactions, got %d", len(none))
		}
	})

	t.Run("DeletePerson cascades to transactions", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		a := &models.Person{Name: "Judy"}
		b := &models.Person{Name: "Ken"}
		mustCreatePerson(t, store, a)
		mustCreatePerson(t, store, b)
		mustCreateTransaction(t, store, a.ID, "100", true, day(1))
		mustCreateTransaction(t, store, a.ID, "40", false, day(2))
		kept := mustCreateTransaction(t, store, b.ID, "25", false, day(3))

		if err := store.DeletePerson(ctx, a.ID); err != nil {
			t.Fatalf("DeletePerson failed: %v", err)
		}

		all, err := store.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for _, tx := range all {
			if tx.PersonID == a.ID {
				t.Errorf("transaction %d still references deleted person", tx.ID)
			}
		}
		if len(all) != 1 || all[0].ID != kept.ID {
			t.Errorf("expected only transaction %d to remain, got %d transactions", kept.ID, len(all))
		}

		if _, err := store.GetPerson(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected deleted person to be gone, got %v", err)
		}
		if err := store.DeletePerson(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("DeleteTransaction", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p := &models.Person{Name: "Leo"}
		mustCreatePerson(t, store, p)
		tx := mustCreateTransaction(t, store, p.ID, "9.99", true, day(1))

		if err := store.DeleteTransaction(ctx, tx.ID); err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}
		if _, err := store.GetTransaction(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteTransaction(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})
}

func open(t *testing.T, newStore func(t *testing.T) storage.Store) storage.Store {
	t.Helper()
	store := newStore(t)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(d int) time.Time {
	return time.Date(2024, time.May, d, 9, 0, 0, 0, time.UTC)
}

func mustCreatePerson(t *testing.T, store storage.Store, p *models.Person) {
	t.Helper()
	if err := store.CreatePerson(context.Background(), p); err != nil {
		t.Fatalf("CreatePerson(%s) failed: %v", p.Name, err)
	}
}

func mustCreateTransaction(t *testing.T, store storage.Store, personID int64, amount string, debtor bool, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		PersonID:       personID,
		Amount:         decimal.RequireFromString(amount),
		Description:    "test transaction",
		Date:           date,
		IsPersonDebtor: debtor,
	}
	if err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	return tx
}
