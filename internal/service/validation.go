package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxAmount is the exclusive upper bound of a NUMERIC(10,2) column.
var maxAmount = decimal.New(1, 8)

// Rounding and comparison rescale the coefficient by the exponent, so both
// are bounded before any arithmetic runs.
const (
	maxAmountExponent  = 20
	maxCoefficientBits = 128
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct runs tag validation and converts failures into a ValidationError.
func (s *LedgerService) checkStruct(input interface{}) *ValidationError {
	verr := &ValidationError{}
	err := s.validate.Struct(input)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// checkAmount enforces a positive currency amount with at most two
// fractional digits.
func checkAmount(verr *ValidationError, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		verr.Add("amount", "must be greater than 0")
	case amount.Exponent() < -maxAmountExponent:
		verr.Add("amount", "must have at most 2 decimal places")
	case amount.Exponent() > maxAmountExponent, amount.Coefficient().BitLen() > maxCoefficientBits:
		verr.Add("amount", "must be less than 100000000")
	case !amount.Equal(amount.Round(2)):
		verr.Add("amount", "must have at most 2 decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		verr.Add("amount", "must be less than 100000000")
	}
}

func checkDate(verr *ValidationError, date time.Time) {
	if date.IsZero() {
		verr.Add("date", "is required")
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
