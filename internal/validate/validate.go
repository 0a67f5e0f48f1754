package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD (e.g. 2025-12-14)")
	ErrInvalidAmount = errors.New("amount must be a number greater than zero")
	ErrEmptyName     = errors.New("customer name must not be empty")
	ErrInvalidKind   = errors.New("invalid entry kind")
)

// time.Parse alone accepts single-digit fields in some layouts, so the shape
// is checked first.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date parses an exact YYYY-MM-DD calendar date and returns it at midnight UTC.
func Date(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !datePattern.MatchString(trimmed) {
		return time.Time{}, ErrInvalidDate
	}
	day, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day.UTC(), nil
}

// MaxAmount is the exclusive upper bound for a single entry; it keeps every
// amount inside NUMERIC(18,2).
var MaxAmount = decimal.New(1, 15)

// Amount parses a strictly positive decimal amount in plain notation with at
// most two fraction digits and below MaxAmount.
func Amount(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() || amount.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Name trims a customer name and rejects blank input.
func Name(text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// MaxYear is the last year a monthly period may name; the window of December
// must still end on a four-digit date.
const MaxYear = 9998

// Month checks a report or summary period.
func Month(year int, month int) error {
	if year < 1 || year > MaxYear || month < 1 || month > 12 {
		return ErrInvalidDate
	}
	return nil
}
