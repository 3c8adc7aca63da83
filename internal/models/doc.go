// Package models defines the core domain models for debtbook.
//
// # Stored Models
//
//   - Person: someone the user lends to or borrows from
//   - Transaction: a single loan or debt between the user and one Person
//
// # Derived Models
//
// The following are computed on every read by the calculator package and
// never persisted:
//   - PersonBalance: net position of one Person
//   - FinancialSummary: portfolio-level aggregates across all people
//
// # Direction Of A Transaction
//
// Amounts are always non-negative. The direction is carried by
// Transaction.IsPersonDebtor:
//
//	IsPersonDebtor = true   the person owes the user (user lent money)
//	IsPersonDebtor = false  the user owes the person (user borrowed money)
//
// Do not encode direction in the sign of Amount; validation everywhere
// assumes Amount > 0.
package models
