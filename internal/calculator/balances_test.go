package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func tx(personID int64, amount string, debtor bool, date time.Time) models.Transaction {
	return models.Transaction{
		PersonID:       personID,
		Amount:         dec(amount),
		IsPersonDebtor: debtor,
		Date:           date,
	}
}

func people(ids ...int64) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = models.Person{ID: id, Name: "person"}
	}
	return out
}

func TestPersonBalance(t *testing.T) {
	transactions := []models.Transaction{
		tx(1, "100", true, day(1)),
		tx(1, "40", false, day(2)),
		tx(2, "25", false, day(3)),
	}

	tests := []struct {
		name     string
		personID int64
		want     string
	}{
		{name: "lent more than borrowed", personID: 1, want: "60"},
		{name: "only borrowed", personID: 2, want: "-25"},
		{name: "unknown person", personID: 99, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonBalance(tt.personID, transactions)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("PersonBalance(%d) = %s, want %s", tt.personID, got, tt.want)
			}
		})
	}

	t.Run("no transactions", func(t *testing.T) {
		if got := PersonBalance(1, nil); !got.IsZero() {
			t.Errorf("PersonBalance with no transactions = %s, want 0", got)
		}
	})
}

func TestAllPersonBalances(t *testing.T) {
	transactions := []models.Transaction{
		tx(1, "100", true, day(5)),
		tx(1, "40", false, day(9)),
		tx(2, "25", false, day(3)),
		tx(42, "500", true, day(1)), // orphan, must be ignored
	}

	balances := AllPersonBalances(people(1, 2, 3), transactions)

	if len(balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(balances))
	}

	a := balances[1]
	if !a.Balance.Equal(dec("60")) {
		t.Errorf("person 1 balance = %s, want 60", a.Balance)
	}
	if a.LastTransaction == nil || !a.LastTransaction.Equal(day(9)) {
		t.Errorf("person 1 last transaction = %v, want %v", a.LastTransaction, day(9))
	}

	b := balances[2]
	if !b.Balance.Equal(dec("-25")) {
		t.Errorf("person 2 balance = %s, want -25", b.Balance)
	}

	c, ok := balances[3]
	if !ok {
		t.Fatal("person 3 missing from balances")
	}
	if !c.Balance.IsZero() {
		t.Errorf("person 3 balance = %s, want 0", c.Balance)
	}
	if c.LastTransaction != nil {
		t.Errorf("person 3 last transaction = %v, want nil", c.LastTransaction)
	}

	if _, ok := balances[42]; ok {
		t.Error("orphan transaction created a balance entry")
	}
}

func TestAllPersonBalancesIsIdempotent(t *testing.T) {
	ppl := people(1, 2)
	transactions := []models.Transaction{
		tx(1, "10.50", true, day(1)),
		tx(2, "3.25", false, day(2)),
		tx(1, "0.50", false, day(3)),
	}

	first := AllPersonBalances(ppl, transactions)
	second := AllPersonBalances(ppl, transactions)

	for id, a := range first {
		b := second[id]
		if !a.Balance.Equal(b.Balance) {
			t.Errorf("person %d: balance %s then %s", id, a.Balance, b.Balance)
		}
		if (a.LastTransaction == nil) != (b.LastTransaction == nil) ||
			(a.LastTransaction != nil && !a.LastTransaction.Equal(*b.LastTransaction)) {
			t.Errorf("person %d: last transaction %v then %v", id, a.LastTransaction, b.LastTransaction)
		}
	}
}

func TestTopDebtorsAndCreditors(t *testing.T) {
	ppl := people(1, 2, 3, 4, 5, 6)
	transactions := []models.Transaction{
		tx(1, "90", true, day(1)),
		tx(2, "50", true, day(1)),
		tx(3, "10", true, day(1)),
		tx(4, "25", false, day(1)),
		tx(5, "75", false, day(1)),
		// person 6 is settled
		tx(6, "30", true, day(1)),
		tx(6, "30", false, day(2)),
	}
	balances := AllPersonBalances(ppl, transactions)

	t.Run("debtors limited and ordered", func(t *testing.T) {
		got := TopDebtors(balances, 2)
		if len(got) != 2 {
			t.Fatalf("expected 2 debtors, got %d", len(got))
		}
		if !got[0].Balance.Equal(dec("90")) || !got[1].Balance.Equal(dec("50")) {
			t.Errorf("debtors = [%s, %s], want [90, 50]", got[0].Balance, got[1].Balance)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		got := TopDebtors(balances, 0)
		if len(got) != 3 {
			t.Errorf("expected 3 debtors, got %d", len(got))
		}
	})

	t.Run("creditors most negative first", func(t *testing.T) {
		got := TopCreditors(balances, 5)
		if len(got) != 2 {
			t.Fatalf("expected 2 creditors, got %d", len(got))
		}
		if got[0].Person.ID != 5 || got[1].Person.ID != 4 {
			t.Errorf("creditor order = [%d, %d], want [5, 4]", got[0].Person.ID, got[1].Person.ID)
		}
	})

	t.Run("settled person in neither list", func(t *testing.T) {
		for _, b := range append(TopDebtors(balances, 10), TopCreditors(balances, 10)...) {
			if b.Person.ID == 6 {
				t.Errorf("settled person 6 listed with balance %s", b.Balance)
			}
		}
	})
}

func TestPeopleWithoutTransactionsAreNeitherDebtorsNorCreditors(t *testing.T) {
	balances := AllPersonBalances(people(1, 2, 3), nil)

	if got := TopDebtors(balances, 10); len(got) != 0 {
		t.Errorf("expected no debtors, got %d", len(got))
	}
	if got := TopCreditors(balances, 10); len(got) != 0 {
		t.Errorf("expected no creditors, got %d", len(got))
	}
	for id, b := range balances {
		if !b.Balance.IsZero() {
			t.Errorf("person %d balance = %s, want 0", id, b.Balance)
		}
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nets per person before aggregating", func(t *testing.T) {
		// Person 1 has transactions in both directions. Summing raw
		// transactions would report 100 owed and 40 owing.
		transactions := []models.Transaction{
			tx(1, "100", true, day(1)),
			tx(1, "40", false, day(2)),
			tx(2, "25", false, day(3)),
		}
		s := Summarize(AllPersonBalances(people(1, 2, 3), transactions), now)

		if !s.TotalOwedToYou.Equal(dec("60")) {
			t.Errorf("TotalOwedToYou = %s, want 60", s.TotalOwedToYou)
		}
		if !s.TotalYouOwe.Equal(dec("25")) {
			t.Errorf("TotalYouOwe = %s, want 25", s.TotalYouOwe)
		}
		if !s.NetBalance.Equal(dec("35")) {
			t.Errorf("NetBalance = %s, want 35", s.NetBalance)
		}
		if s.DebtorCount != 1 || s.CreditorCount != 1 {
			t.Errorf("counts = %d debtors, %d creditors, want 1 and 1", s.DebtorCount, s.CreditorCount)
		}
		if !s.LastUpdated.Equal(now) {
			t.Errorf("LastUpdated = %v, want %v", s.LastUpdated, now)
		}
	})

	t.Run("empty portfolio", func(t *testing.T) {
		s := Summarize(nil, now)
		if !s.TotalOwedToYou.IsZero() || !s.TotalYouOwe.IsZero() || !s.NetBalance.IsZero() {
			t.Errorf("expected zero totals, got %+v", s)
		}
		if s.DebtorCount != 0 || s.CreditorCount != 0 {
			t.Errorf("expected zero counts, got %d and %d", s.DebtorCount, s.CreditorCount)
		}
	})

	t.Run("net equals sum of balances", func(t *testing.T) {
		transactions := []models.Transaction{
			tx(1, "12.34", true, day(1)),
			tx(2, "56.78", false, day(1)),
			tx(3, "0.01", true, day(1)),
			tx(3, "0.02", false, day(2)),
			tx(4, "1000", true, day(4)),
		}
		balances := AllPersonBalances(people(1, 2, 3, 4), transactions)
		s := Summarize(balances, now)

		sum := decimal.Zero
		for _, b := range balances {
			sum = sum.Add(b.Balance)
		}
		if !s.NetBalance.Equal(sum) {
			t.Errorf("NetBalance = %s, sum of balances = %s", s.NetBalance, sum)
		}
		if !s.NetBalance.Equal(s.TotalOwedToYou.Sub(s.TotalYouOwe)) {
			t.Errorf("NetBalance %s != %s - %s", s.NetBalance, s.TotalOwedToYou, s.TotalYouOwe)
		}
	})
}

func TestCentIncrementsAreExact(t *testing.T) {
	const n = 10000
	transactions := make([]models.Transaction, n)
	for i := range transactions {
		transactions[i] = tx(1, "0.01", true, day(1))
	}

	got := PersonBalance(1, transactions)
	if !got.Equal(dec("100.00")) {
		t.Errorf("sum of %d cents = %s, want exactly 100.00", n, got)
	}

	s := Summarize(AllPersonBalances(people(1), transactions), time.Now())
	if s.TotalOwedToYou.StringFixed(2) != "100.00" {
		t.Errorf("TotalOwedToYou = %s, want 100.00", s.TotalOwedToYou.StringFixed(2))
	}
}

func TestSortedBalances(t *testing.T) {
	transactions := []models.Transaction{
		tx(1, "5", false, day(1)),
		tx(2, "50", true, day(1)),
	}
	got := SortedBalances(AllPersonBalances(people(1, 2, 3), transactions))

	want := []int64{2, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d balances, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].Person.ID != id {
			t.Errorf("position %d: got person %d, want %d", i, got[i].Person.ID, id)
		}
	}
}
