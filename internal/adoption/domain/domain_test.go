package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIncome(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1.600.000", want: 1_600_000},
		{raw: "$1,600,000", want: 1_600_000},
		{raw: " 2500000 ", want: 2_500_000},
		{raw: "-300", want: 300},
		{raw: "0", want: 0},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseIncome(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIncome)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "2000000", want: 2_000_000},
		{raw: " 2000000 ", want: 2_000_000},
		{raw: "2000000.5", want: 2_000_000},
		{raw: "1599999.99", want: 1_599_999},
		{raw: "2e6", want: 2_000_000},
		{raw: "-5", want: -5},
		{raw: "-0.5", want: 0},
		{raw: "", wantErr: true},
		{raw: "lots", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "1e30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIncome)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Luna", DisplayName("Luna_3"))
	assert.Equal(t, "Max", DisplayName("Max_golden_7"))
	assert.Equal(t, "Rocky", DisplayName("Rocky"))
	assert.Equal(t, "", DisplayName("_9"))
}

func TestFormatIncome(t *testing.T) {
	assert.Equal(t, "$1,600,000", FormatIncome(1_600_000))
	assert.Equal(t, "$0", FormatIncome(0))
}

func TestNewRequest(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("COT", -5*3600))

	t.Run("defaults the requester name", func(t *testing.T) {
		req, err := NewRequest(" Luna_1 ", "  ", 10, at)
		require.NoError(t, err)
		assert.Equal(t, "Luna_1", req.ItemID)
		assert.Equal(t, AnonymousRequester, req.RequesterName)
		assert.Equal(t, time.UTC, req.SubmittedAt.Location())
	})

	t.Run("requires an item id", func(t *testing.T) {
		_, err := NewRequest("", "Ana Maria", 10, at)
		assert.ErrorIs(t, err, ErrMissingItemID)
	})

	t.Run("rejects negative income", func(t *testing.T) {
		_, err := NewRequest("Luna_1", "Ana Maria", -1, at)
		assert.ErrorIs(t, err, ErrNegativeIncome)
	})
}

func TestEvaluator_Evaluate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		income  int64
		person  string
		verdict Verdict
		reason  string
	}{
		{"exactly the minimum with a long name", 1_600_000, "Carlos", VerdictApproved, "You meet all the requirements!"},
		{"one below the minimum", 1_599_999, "Carlos", VerdictRejected, "Insufficient income ($1,599,999) to adopt this pet. Minimum required: $1,600,000"},
		{"three letter name", 5_000_000, "Ana", VerdictRejected, "Name too short for validation"},
		{"length counts runes not bytes", 5_000_000, "Zoë", VerdictRejected, "Name too short for validation"},
		{"income reason wins over name", 10, "Bo", VerdictRejected, "Insufficient income ($10) to adopt this pet. Minimum required: $1,600,000"},
	}

	e := NewEvaluator(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest("Luna_1", tt.person, tt.income, now)
			require.NoError(t, err)

			d := e.Evaluate(*req, now)

			assert.Equal(t, tt.verdict, d.Verdict)
			assert.Equal(t, tt.verdict == VerdictApproved, d.Approved())
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestEvaluator_CustomMinimum(t *testing.T) {
	req, err := NewRequest("Max_2", "Valentina", 900_000, time.Now())
	require.NoError(t, err)

	assert.True(t, NewEvaluator(500_000).Evaluate(*req, time.Now()).Approved())
	assert.False(t, NewEvaluator(1_000_000).Evaluate(*req, time.Now()).Approved())
}

func TestEvents(t *testing.T) {
	req, err := NewRequest("Luna_1", "Valentina", 2_000_000, time.Now())
	require.NoError(t, err)

	requested := NewAdoptionRequested(*req)
	assert.Equal(t, RoutingKeyRequested, requested.RoutingKey())
	assert.Equal(t, req.ID, requested.AggregateID())
	assert.Equal(t, AggregateType, requested.AggregateType())

	decided := NewAdoptionDecided(NewEvaluator(0).Evaluate(*req, time.Now()))
	body, err := json.Marshal(decided)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.Equal(t, "Luna_1", wire["mascota_id"])
	assert.Equal(t, "APPROVED", wire["resultado"])
	assert.Equal(t, true, wire["aprobado"])
}
