package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// JSON tags name the fields reported in ValidationError.

// PersonInput holds the fields for creating a person.
// Empty optional fields are stored as absent.
type PersonInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Relationship string `json:"relationship" validate:"max=100"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Phone        string `json:"phone" validate:"max=40"`
}

// PersonUpdate holds a partial update for a person.
// Nil fields are unchanged; an empty optional field clears it.
type PersonUpdate struct {
	Name         *string `json:"name" validate:"omitnil,required,max=100"`
	Relationship *string `json:"relationship" validate:"omitnil,max=100"`
	Email        *string `json:"email" validate:"omitempty,email,max=254"`
	Phone        *string `json:"phone" validate:"omitnil,max=40"`
}

// TransactionInput holds the fields for recording a transaction.
type TransactionInput struct {
	PersonID       int64           `json:"personId" validate:"required,gt=0"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" validate:"required,max=500"`
	Date           time.Time       `json:"date"`
	IsPersonDebtor *bool           `json:"isPersonDebtor" validate:"required"`
}

// TransactionUpdate holds a partial update for a transaction.
// Nil fields are unchanged.
type TransactionUpdate struct {
	PersonID       *int64           `json:"personId" validate:"omitnil,gt=0"`
	Amount         *decimal.Decimal `json:"amount"`
	Description    *string          `json:"description" validate:"omitnil,required,max=500"`
	Date           *time.Time       `json:"date"`
	IsPersonDebtor *bool            `json:"isPersonDebtor"`
}
