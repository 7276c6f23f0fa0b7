package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/riskexec/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingJournal struct{}

func (failingJournal) RecordOrder(OrderRecord) error { return errors.New("disk full") }
func (failingJournal) Close() error                  { return nil }

func TestObserverRecordsOrder(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	obs := NewObserver(j, nil)
	obs.now = func() time.Time { return at }

	c := testCandidate(t, "BTCUSDT", market.Long)
	obs.NotifyOrderAccepted(context.Background(), c, "venue-1")

	got, err := j.GetOrder("venue-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.CandidateID)
	assert.Equal(t, market.Practice, got.Mode)
	assert.True(t, got.AcceptedAt.Equal(at))
}

func TestObserverLogsJournalFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	obs := NewObserver(failingJournal{}, zap.New(core))

	obs.NotifyOrderAccepted(context.Background(), testCandidate(t, "BTCUSDT", market.Long), "venue-2")

	entries := logs.FilterMessage("journal order").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "venue-2", entries[0].ContextMap()["order_id"])
}
