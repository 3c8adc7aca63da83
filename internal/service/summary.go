package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/models"
)

// Summary returns the portfolio aggregates computed from current data.
func (s *LedgerService) Summary(ctx context.Context) (models.FinancialSummary, error) {
	balances, err := s.balances(ctx)
	if err != nil {
		return models.FinancialSummary{}, err
	}
	return calculator.Summarize(balances, s.now()), nil
}

// TopDebtors returns up to limit people who owe the user, largest first.
// A limit <= 0 means calculator.DefaultTopLimit.
func (s *LedgerService) TopDebtors(ctx context.Context, limit int) ([]models.PersonBalance, error) {
	balances, err := s.balances(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.TopDebtors(balances, limit), nil
}

// TopCreditors returns up to limit people the user owes, largest debt first.
// A limit <= 0 means calculator.DefaultTopLimit.
func (s *LedgerService) TopCreditors(ctx context.Context, limit int) ([]models.PersonBalance, error) {
	balances, err := s.balances(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.TopCreditors(balances, limit), nil
}

// Balances returns every person's balance, largest debtor first.
func (s *LedgerService) Balances(ctx context.Context) ([]models.PersonBalance, error) {
	balances, err := s.balances(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.SortedBalances(balances), nil
}

// PersonBalance returns the net balance of one person.
// Returns ErrNotFound if the person does not exist.
func (s *LedgerService) PersonBalance(ctx context.Context, personID int64) (decimal.Decimal, error) {
	if _, err := s.store.GetPerson(ctx, personID); err != nil {
		return decimal.Zero, err
	}
	transactions, err := s.store.ListTransactionsByPerson(ctx, personID)
	if err != nil {
		s.logger.ErrorContext(ctx, "PersonBalance failed", "person_id", personID, "error", err)
		return decimal.Zero, err
	}
	return calculator.PersonBalance(personID, transactions), nil
}

func (s *LedgerService) balances(ctx context.Context) (map[int64]models.PersonBalance, error) {
	people, transactions, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.AllPersonBalances(people, transactions), nil
}
