package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/service"
)

// Responses

type personResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Relationship *string   `json:"relationship"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
}

type transactionResponse struct {
	ID             int64           `json:"id"`
	PersonID       int64           `json:"personId"`
	Amount         string          `json:"amount"`
	Description    string          `json:"description"`
	Date           time.Time       `json:"date"`
	IsPersonDebtor bool            `json:"isPersonDebtor"`
	CreatedAt      time.Time       `json:"createdAt"`
	Person         *personResponse `json:"person,omitempty"`
}

type personBalanceResponse struct {
	Person          personResponse `json:"person"`
	Balance         json.Number    `json:"balance"`
	LastTransaction *time.Time     `json:"lastTransaction"`
}

type balanceResponse struct {
	PersonID int64       `json:"personId"`
	Balance  json.Number `json:"balance"`
}

type summaryResponse struct {
	TotalOwedToYou json.Number `json:"totalOwedToYou"`
	TotalYouOwe    json.Number `json:"totalYouOwe"`
	NetBalance     json.Number `json:"netBalance"`
	DebtorCount    int         `json:"debtorCount"`
	CreditorCount  int         `json:"creditorCount"`
	LastUpdated    time.Time   `json:"lastUpdated"`
}

type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string               `json:"message"`
	Errors  []fieldErrorResponse `json:"errors,omitempty"`
}

// money renders an amount as a JSON number with two fractional digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toPerson(p models.Person) personResponse {
	return personResponse{
		ID:           p.ID,
		Name:         p.Name,
		Relationship: p.Relationship,
		Email:        p.Email,
		Phone:        p.Phone,
		CreatedAt:    p.CreatedAt,
	}
}

func toPeople(people []models.Person) []personResponse {
	out := make([]personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, toPerson(p))
	}
	return out
}

func toTransaction(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		PersonID:       t.PersonID,
		Amount:         t.Amount.StringFixed(2),
		Description:    t.Description,
		Date:           t.Date,
		IsPersonDebtor: t.IsPersonDebtor,
		CreatedAt:      t.CreatedAt,
	}
}

func toTransactions(transactions []models.TransactionWithPerson) []transactionResponse {
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp := toTransaction(t.Transaction)
		person := toPerson(t.Person)
		resp.Person = &person
		out = append(out, resp)
	}
	return out
}

func toBalances(balances []models.PersonBalance) []personBalanceResponse {
	out := make([]personBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, personBalanceResponse{
			Person:          toPerson(b.Person),
			Balance:         money(b.Balance),
			LastTransaction: b.LastTransaction,
		})
	}
	return out
}

func toSummary(s models.FinancialSummary) summaryResponse {
	return summaryResponse{
		TotalOwedToYou: money(s.TotalOwedToYou),
		TotalYouOwe:    money(s.TotalYouOwe),
		NetBalance:     money(s.NetBalance),
		DebtorCount:    s.DebtorCount,
		CreditorCount:  s.CreditorCount,
		LastUpdated:    s.LastUpdated,
	}
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}

// Requests

// personRequest is the body of person create and update requests.
// Absent fields decode as nil.
type personRequest struct {
	Name         *string `json:"name"`
	Relationship *string `json:"relationship"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
}

func (r personRequest) input() service.PersonInput {
	return service.PersonInput{
		Name:         deref(r.Name),
		Relationship: deref(r.Relationship),
		Email:        deref(r.Email),
		Phone:        deref(r.Phone),
	}
}

func (r personRequest) update() service.PersonUpdate {
	return service.PersonUpdate{
		Name:         r.Name,
		Relationship: r.Relationship,
		Email:        r.Email,
		Phone:        r.Phone,
	}
}

// transactionRequest is the body of transaction create and update requests.
// personId and amount may be sent as JSON numbers or numeric strings; date
// as an RFC 3339 timestamp or a plain YYYY-MM-DD date.
type transactionRequest struct {
	PersonID       json.RawMessage `json:"personId"`
	Amount         json.RawMessage `json:"amount"`
	Description    *string         `json:"description"`
	Date           json.RawMessage `json:"date"`
	IsPersonDebtor *bool           `json:"isPersonDebtor"`
}

type parsedTransaction struct {
	personID *int64
	amount   *decimal.Decimal
	date     *time.Time
}

func (r transactionRequest) parse() (parsedTransaction, error) {
	var (
		out  parsedTransaction
		verr service.ValidationError
	)

	if s, ok, err := rawScalar(r.PersonID); err != nil {
		verr.Add("personId", "must be a number")
	} else if ok {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			verr.Add("personId", "must be an integer")
		} else {
			out.personID = &id
		}
	}

	if s, ok, err := rawScalar(r.Amount); err != nil {
		verr.Add("amount", "must be a number")
	} else if ok {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			verr.Add("amount", "must be a number")
		} else {
			out.amount = &amount
		}
	}

	if s, ok, err := rawScalar(r.Date); err != nil {
		verr.Add("date", "must be a date string")
	} else if ok {
		date, err := parseDate(s)
		if err != nil {
			verr.Add("date", "must be an ISO 8601 date")
		} else {
			out.date = &date
		}
	}

	return out, verr.OrNil()
}

func (r transactionRequest) input() (service.TransactionInput, error) {
	p, err := r.parse()
	if err != nil {
		return service.TransactionInput{}, err
	}
	input := service.TransactionInput{
		Description:    deref(r.Description),
		IsPersonDebtor: r.IsPersonDebtor,
	}
	if p.personID != nil {
		input.PersonID = *p.personID
	}
	if p.amount != nil {
		input.Amount = *p.amount
	}
	if p.date != nil {
		input.Date = *p.date
	}
	return input, nil
}

func (r transactionRequest) update() (service.TransactionUpdate, error) {
	p, err := r.parse()
	if err != nil {
		return service.TransactionUpdate{}, err
	}
	return service.TransactionUpdate{
		PersonID:       p.personID,
		Amount:         p.amount,
		Description:    r.Description,
		Date:           p.date,
		IsPersonDebtor: r.IsPersonDebtor,
	}, nil
}

// maxScalarLen bounds the text of a numeric or date field.
const maxScalarLen = 64

// rawScalar returns the text of a JSON number or string. ok is false for
// absent or null values.
func rawScalar(raw json.RawMessage) (value string, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if len(raw) > maxScalarLen {
		return "", false, fmt.Errorf("value longer than %d bytes", maxScalarLen)
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), true, nil
	default:
		return "", false, fmt.Errorf("unexpected JSON value %s", raw)
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
