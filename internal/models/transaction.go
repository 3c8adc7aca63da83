package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single loan or debt between the user and one Person.
type Transaction struct {
	// ID is the store-assigned identifier.
	ID int64

	// PersonID references the Person this transaction belongs to.
	PersonID int64

	// Amount is the positive value of the transaction (2 fractional digits).
	Amount decimal.Decimal

	// Description says what the money was for.
	Description string

	// Date is when the money changed hands.
	Date time.Time

	// IsPersonDebtor is true when the person owes the user and false when
	// the user owes the person.
	IsPersonDebtor bool

	// CreatedAt is when the transaction was recorded.
	CreatedAt time.Time
}

// TransactionWithPerson is a Transaction joined with its Person.
type TransactionWithPerson struct {
	Transaction
	Person Person
}

// TransactionPatch holds a partial update for a Transaction.
// Nil fields are left unchanged.
type TransactionPatch struct {
	PersonID       *int64
	Amount         *decimal.Decimal
	Description    *string
	Date           *time.Time
	IsPersonDebtor *bool
}

// Apply returns a copy of t with the patch applied.
func (patch TransactionPatch) Apply(t Transaction) Transaction {
	if patch.PersonID != nil {
		t.PersonID = *patch.PersonID
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.IsPersonDebtor != nil {
		t.IsPersonDebtor = *patch.IsPersonDebtor
	}
	return t
}

// SignedAmount returns Amount as seen from the user's side: positive when
// the person owes the user, negative when the user owes the person.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.IsPersonDebtor {
		return t.Amount
	}
	return t.Amount.Neg()
}
