package consultations

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/internal/logger"
	"schooladmin/internal/notification"
)

type stubFetcher struct {
	mu      sync.Mutex
	records []notification.Consultation
	err     error
	calls   atomic.Int32
	limit   int
}

func (f *stubFetcher) Recent(_ context.Context, limit int) ([]notification.Consultation, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *stubFetcher) set(records []notification.Consultation, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

func record(id uint64) notification.Consultation {
	return notification.Consultation{ID: id, Name: "Student", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestSyncService_RunFetchesImmediatelyAndOnTick(t *testing.T) {
	fetcher := &stubFetcher{records: []notification.Consultation{record(1), record(2)}}
	agg := notification.NewAggregator(logger.Discard())
	svc := NewSyncService(SyncConfig{PollInterval: 20 * time.Millisecond, FetchLimit: 25}, fetcher, agg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	require.Eventually(t, func() bool { return agg.UnreadCount() == 2 }, time.Second, 5*time.Millisecond)

	fetcher.set([]notification.Consultation{record(3), record(1), record(2)}, nil)
	require.Eventually(t, func() bool { return agg.UnreadCount() == 3 }, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, fetcher.calls.Load(), int32(2))
	assert.False(t, svc.LastSync().IsZero())

	fetcher.mu.Lock()
	assert.Equal(t, 25, fetcher.limit)
	fetcher.mu.Unlock()
}

func TestSyncService_FailedFetchLeavesAggregatorUntouched(t *testing.T) {
	fetcher := &stubFetcher{records: []notification.Consultation{record(1)}}
	agg := notification.NewAggregator(logger.Discard())
	svc := NewSyncService(SyncConfig{RefreshPerMinute: 10}, fetcher, agg, logger.Discard())

	added, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	fetcher.set(nil, assert.AnError)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	_, ok := agg.ConsultationDetail("consultation-1")
	assert.True(t, ok, "cached feed must survive a failed fetch")
	assert.Len(t, agg.Notifications(), 1)
}

func TestSyncService_RefreshThrottled(t *testing.T) {
	fetcher := &stubFetcher{}
	agg := notification.NewAggregator(logger.Discard())
	svc := NewSyncService(SyncConfig{RefreshPerMinute: 1}, fetcher, agg, logger.Discard())

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshThrottled)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestSyncService_StopsOnCancel(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewSyncService(SyncConfig{PollInterval: time.Hour}, fetcher, notification.NewAggregator(logger.Discard()), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
