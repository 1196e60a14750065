package consultations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"schooladmin/internal/metrics"
	"schooladmin/internal/notification"
)

var ErrRefreshThrottled = errors.New("refresh throttled")

const fetchTimeout = 10 * time.Second

// Fetcher returns the most recent consultations, newest first.
type Fetcher interface {
	Recent(ctx context.Context, limit int) ([]notification.Consultation, error)
}

// Ingester receives each successful fetch.
type Ingester interface {
	IngestConsultations(records []notification.Consultation) int
}

// SyncConfig holds configuration for the sync service
type SyncConfig struct {
	PollInterval     time.Duration
	FetchLimit       int
	RefreshPerMinute int
}

// SyncService keeps the aggregator fed from the consultation table: once at
// startup, then on every poll tick, plus operator-triggered refreshes.
type SyncService struct {
	fetcher  Fetcher
	ingester Ingester
	logger   *slog.Logger

	pollInterval time.Duration
	fetchLimit   int
	limiter      *rate.Limiter

	fetchMu  sync.Mutex // one fetch at a time
	lastMu   sync.RWMutex
	lastSync time.Time
}

func NewSyncService(cfg SyncConfig, fetcher Fetcher, ingester Ingester, logger *slog.Logger) *SyncService {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 100
	}
	perMinute := cfg.RefreshPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	return &SyncService{
		fetcher:      fetcher,
		ingester:     ingester,
		logger:       logger,
		pollInterval: pollInterval,
		fetchLimit:   fetchLimit,
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// Start runs the poll loop in the background until ctx is cancelled.
func (s *SyncService) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run fetches once, then on every tick. It blocks until ctx is cancelled.
func (s *SyncService) Run(ctx context.Context) {
	s.logger.Info("consultation_sync_started", "interval", s.pollInterval, "limit", s.fetchLimit)
	_, _ = s.sync(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("consultation_sync_stopped")
			return
		case <-ticker.C:
			_, _ = s.sync(ctx)
		}
	}
}

// Refresh forces a fetch outside the poll schedule. Returns how many new
// notifications it produced.
func (s *SyncService) Refresh(ctx context.Context) (int, error) {
	if !s.limiter.Allow() {
		return 0, ErrRefreshThrottled
	}
	return s.sync(ctx)
}

// LastSync is the time of the last successful fetch, zero before the first one.
func (s *SyncService) LastSync() time.Time {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastSync
}

// sync never touches the aggregator when the fetch fails.
func (s *SyncService) sync(ctx context.Context) (int, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	records, err := s.fetcher.Recent(fetchCtx, s.fetchLimit)
	if err != nil {
		metrics.ConsultationFetchFailures.Inc()
		s.logger.Warn("consultation_fetch_failed", "error", err)
		return 0, fmt.Errorf("fetch consultations: %w", err)
	}

	added := s.ingester.IngestConsultations(records)

	s.lastMu.Lock()
	s.lastSync = time.Now()
	s.lastMu.Unlock()

	s.logger.Debug("consultation_fetch_completed", "received", len(records), "added", added)
	return added, nil
}
