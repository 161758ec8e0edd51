package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// testHistory exercises the behaviour every store must share.
func testHistory(t *testing.T, newHistory func(t *testing.T, capacity int) domain.History) {
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("lists newest first", func(t *testing.T) {
		h := newHistory(t, 15)
		sent := domain.NewNotification(domain.KindSent, "REQUEST SENT", "Luna", base)
		processing := domain.NewNotification(domain.KindProcessing, "PROCESSING REQUEST", "Luna", base.Add(time.Second))

		require.NoError(t, h.Add(ctx, sent))
		require.NoError(t, h.Add(ctx, processing))

		got, err := h.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, processing.ID, got[0].ID)
		assert.Equal(t, sent.ID, got[1].ID)
		assert.Equal(t, domain.KindSent, got[1].Kind)
		assert.Equal(t, "REQUEST SENT", got[1].Title)
		assert.True(t, sent.Timestamp.Equal(got[1].Timestamp))
	})

	t.Run("drops the oldest beyond capacity", func(t *testing.T) {
		h := newHistory(t, 3)
		for i := 0; i < 5; i++ {
			n := domain.NewNotification(domain.KindInfo, "INFO", fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second))
			require.NoError(t, h.Add(ctx, n))
		}

		got, err := h.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "msg-4", got[0].Message)
		assert.Equal(t, "msg-2", got[2].Message)
	})

	t.Run("clear empties the history", func(t *testing.T) {
		h := newHistory(t, 15)
		require.NoError(t, h.Add(ctx, domain.NewNotification(domain.KindError, "ERROR", "x", base)))

		require.NoError(t, h.Clear(ctx))

		got, err := h.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMemoryHistory(t *testing.T) {
	testHistory(t, func(t *testing.T, capacity int) domain.History {
		return NewMemoryHistory(capacity)
	})
}

func TestMemoryHistory_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(0)
	require.NoError(t, h.Add(ctx, domain.NewNotification(domain.KindInfo, "INFO", "a", time.Now())))

	got, err := h.List(ctx)
	require.NoError(t, err)
	got[0].Message = "mutated"

	again, err := h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Message)
}

func TestRecord_RejectsCorruptEntries(t *testing.T) {
	_, err := unmarshalRecord([]byte(`{"id":"not-a-uuid","kind":"info","created_at":"2026-01-01T00:00:00Z"}`))
	assert.Error(t, err)

	_, err = unmarshalRecord([]byte(`{"id":"7d6f6a2e-3a38-4f39-9f0c-0d3c1a8f7b11","kind":"banner","created_at":"2026-01-01T00:00:00Z"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}
