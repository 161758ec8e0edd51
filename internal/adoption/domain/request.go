package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// AnonymousRequester is used when a request arrives without a name.
const AnonymousRequester = "Anonymous User"

var (
	// ErrMissingItemID is returned when no animal was specified.
	ErrMissingItemID = errors.New("no pet specified")
	// ErrInvalidIncome is returned when income has no digits or overflows.
	ErrInvalidIncome = errors.New("income must be a valid number")
	// ErrNegativeIncome is returned for negative incomes.
	ErrNegativeIncome = errors.New("income must not be negative")
)

// Request is a single adoption request.
type Request struct {
	ID            uuid.UUID
	ItemID        string
	RequesterName string
	Income        int64
	SubmittedAt   time.Time
}

// NewRequest validates and builds a request.
func NewRequest(itemID, requesterName string, income int64, at time.Time) (*Request, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, ErrMissingItemID
	}
	if income < 0 {
		return nil, ErrNegativeIncome
	}
	requesterName = strings.TrimSpace(requesterName)
	if requesterName == "" {
		requesterName = AnonymousRequester
	}
	return &Request{
		ID:            uuid.New(),
		ItemID:        itemID,
		RequesterName: requesterName,
		Income:        income,
		SubmittedAt:   at.UTC(),
	}, nil
}

// DisplayName returns the animal's name: the item id up to the first "_".
// "Luna_3" -> "Luna".
func DisplayName(itemID string) string {
	name, _, _ := strings.Cut(itemID, "_")
	return name
}

// ParseIncome keeps only the ASCII digits of raw, so "1.600.000" and
// "$1,600,000" both parse as 1600000.
func ParseIncome(raw string) (int64, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, ErrInvalidIncome
	}

	income, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidIncome
	}
	return income, nil
}

// ParseAmount reads an income sent by the page. Decimal and exponent forms
// are truncated toward zero, so "2000000.5" is 2000000.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidIncome
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, ErrInvalidIncome
	}
	return int64(f), nil
}

// FormatIncome renders an amount the way the page shows it, e.g. "$1,600,000".
func FormatIncome(income int64) string {
	return "$" + humanize.Comma(income)
}
