package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PersonBalance represents the net position of one Person.
type PersonBalance struct {
	Person Person

	// Balance is positive when the person owes the user, negative when the
	// user owes the person and zero when settled.
	Balance decimal.Decimal

	// LastTransaction is the latest transaction date, nil if the person has
	// no transactions.
	LastTransaction *time.Time
}

// IsDebtor reports whether the person owes the user.
func (b PersonBalance) IsDebtor() bool { return b.Balance.IsPositive() }

// IsCreditor reports whether the user owes the person.
func (b PersonBalance) IsCreditor() bool { return b.Balance.IsNegative() }

// FinancialSummary aggregates all person balances.
type FinancialSummary struct {
	TotalOwedToYou decimal.Decimal
	TotalYouOwe    decimal.Decimal
	NetBalance     decimal.Decimal
	DebtorCount    int
	CreditorCount  int
	LastUpdated    time.Time
}
