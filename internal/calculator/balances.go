// Package calculator derives balances and portfolio aggregates from a
// snapshot of people and transactions.
//
// Every function here is pure: nothing is cached, nothing is persisted and
// missing data degrades to zero or empty results instead of an error.
package calculator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
)

// DefaultTopLimit is the number of entries returned by TopDebtors and
// TopCreditors when no positive limit is given.
const DefaultTopLimit = 5

// PersonBalance computes the net balance of one person.
//
// Transactions where the person is the debtor add to the balance, the rest
// subtract from it. A person with no transactions, or an unknown person,
// has a balance of zero.
func PersonBalance(personID int64, transactions []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range transactions {
		if t.PersonID != personID {
			continue
		}
		balance = balance.Add(t.SignedAmount())
	}
	return balance
}

// AllPersonBalances computes the balance of every known person in a single
// pass over the transactions.
//
// Every person starts at zero with no last transaction, so people without
// transactions still appear in the result. Transactions that reference a
// person not in people are ignored.
func AllPersonBalances(people []models.Person, transactions []models.Transaction) map[int64]models.PersonBalance {
	balances := make(map[int64]*models.PersonBalance, len(people))
	for _, p := range people {
		balances[p.ID] = &models.PersonBalance{Person: p, Balance: decimal.Zero}
	}

	for _, t := range transactions {
		bal, ok := balances[t.PersonID]
		if !ok {
			continue
		}
		bal.Balance = bal.Balance.Add(t.SignedAmount())
		if bal.LastTransaction == nil || t.Date.After(*bal.LastTransaction) {
			date := t.Date
			bal.LastTransaction = &date
		}
	}

	result := make(map[int64]models.PersonBalance, len(balances))
	for id, bal := range balances {
		result[id] = *bal
	}
	return result
}

// TopDebtors returns up to limit people with a strictly positive balance,
// largest balance first. A limit <= 0 means DefaultTopLimit.
func TopDebtors(balances map[int64]models.PersonBalance, limit int) []models.PersonBalance {
	debtors := filter(balances, models.PersonBalance.IsDebtor)
	sort.Slice(debtors, func(i, j int) bool {
		if c := debtors[i].Balance.Cmp(debtors[j].Balance); c != 0 {
			return c > 0
		}
		return debtors[i].Person.ID < debtors[j].Person.ID
	})
	return truncate(debtors, limit)
}

// TopCreditors returns up to limit people with a strictly negative balance,
// most negative balance first. A limit <= 0 means DefaultTopLimit.
func TopCreditors(balances map[int64]models.PersonBalance, limit int) []models.PersonBalance {
	creditors := filter(balances, models.PersonBalance.IsCreditor)
	sort.Slice(creditors, func(i, j int) bool {
		if c := creditors[i].Balance.Cmp(creditors[j].Balance); c != 0 {
			return c < 0
		}
		return creditors[i].Person.ID < creditors[j].Person.ID
	})
	return truncate(creditors, limit)
}

// SortedBalances returns every balance ordered from the largest debtor to
// the largest creditor.
func SortedBalances(balances map[int64]models.PersonBalance) []models.PersonBalance {
	all := filter(balances, func(models.PersonBalance) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if c := all[i].Balance.Cmp(all[j].Balance); c != 0 {
			return c > 0
		}
		return all[i].Person.ID < all[j].Person.ID
	})
	return all
}

// Summarize aggregates per-person balances into a FinancialSummary.
//
// Aggregation happens after per-person netting: a person with 100 lent and
// 40 borrowed contributes 60 to TotalOwedToYou and nothing to TotalYouOwe.
// now is stamped into LastUpdated.
func Summarize(balances map[int64]models.PersonBalance, now time.Time) models.FinancialSummary {
	summary := models.FinancialSummary{
		TotalOwedToYou: decimal.Zero,
		TotalYouOwe:    decimal.Zero,
		LastUpdated:    now,
	}

	for _, bal := range balances {
		switch {
		case bal.IsDebtor():
			summary.TotalOwedToYou = summary.TotalOwedToYou.Add(bal.Balance)
			summary.DebtorCount++
		case bal.IsCreditor():
			summary.TotalYouOwe = summary.TotalYouOwe.Add(bal.Balance.Abs())
			summary.CreditorCount++
		}
	}

	summary.NetBalance = summary.TotalOwedToYou.Sub(summary.TotalYouOwe)
	return summary
}

func filter(balances map[int64]models.PersonBalance, keep func(models.PersonBalance) bool) []models.PersonBalance {
	var out []models.PersonBalance
	for _, bal := range balances {
		if keep(bal) {
			out = append(out, bal)
		}
	}
	return out
}

func truncate(balances []models.PersonBalance, limit int) []models.PersonBalance {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if len(balances) > limit {
		balances = balances[:limit]
	}
	return balances
}
