package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/pkg/jobs"
)

// SweepBlobStore is the slice of the blob store the orphan sweep needs.
type SweepBlobStore interface {
	ListKeys() ([]string, error)
	KeyFromURL(url string) (string, bool)
	Delete(key string) error
}

type fileURLLister interface {
	ListFileURLs(ctx context.Context) ([]string, error)
}

// SweepService reclaims stored blobs that no metadata row references
// anymore. Deleting a file or material never touches its blob, so orphans
// accumulate until this sweep runs. It is opt-in and disabled by default.
type SweepService struct {
	blobs    SweepBlobStore
	listers  []fileURLLister
	metrics  *MetricsService
	queue    *jobs.Queue
	interval time.Duration
	minAge   time.Duration
	logger   *zap.Logger
	stopTick context.CancelFunc
}

// NewSweepService builds the sweep with its own single-worker queue.
func NewSweepService(blobs SweepBlobStore, metrics *MetricsService, interval time.Duration, logger *zap.Logger, listers ...fileURLLister) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s := &SweepService{
		blobs:    blobs,
		listers:  listers,
		metrics:  metrics,
		interval: interval,
		minAge:   time.Hour,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("uploads-sweep", s.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Minute,
		Logger:     logger,
	})
	return s
}

// Start launches the queue and a ticker that enqueues one sweep per
// interval. It returns immediately.
func (s *SweepService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	tickCtx, cancel := context.WithCancel(ctx)
	s.stopTick = cancel
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if err := s.Trigger(); err != nil {
					s.logger.Warn("failed to enqueue uploads sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the ticker and drains the queue.
func (s *SweepService) Stop() {
	if s.stopTick != nil {
		s.stopTick()
	}
	s.queue.Stop()
}

// Trigger enqueues one sweep run.
func (s *SweepService) Trigger() error {
	return s.queue.Enqueue(jobs.Job{
		ID:       uuid.NewString(),
		Type:     "uploads-sweep",
		Enqueued: time.Now(),
	})
}

func (s *SweepService) handle(ctx context.Context, job jobs.Job) error {
	referenced := make(map[string]struct{})
	for _, lister := range s.listers {
		urls, err := lister.ListFileURLs(ctx)
		if err != nil {
			return fmt.Errorf("list referenced file urls: %w", err)
		}
		for _, u := range urls {
			if key, ok := s.blobs.KeyFromURL(u); ok {
				referenced[key] = struct{}{}
			}
		}
	}

	keys, err := s.blobs.ListKeys()
	if err != nil {
		return fmt.Errorf("list stored keys: %w", err)
	}

	deleted := 0
	cutoff := time.Now().Add(-s.minAge)
	for _, key := range keys {
		if _, ok := referenced[key]; ok {
			continue
		}
		// Keys embed a millisecond timestamp; very recent blobs may belong
		// to an upload whose metadata insert is still in flight.
		if ts, ok := keyTimestamp(key); ok && ts.After(cutoff) {
			continue
		}
		if err := s.blobs.Delete(key); err != nil {
			s.logger.Warn("failed to delete orphaned blob", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted++
	}
	s.metrics.RecordSweepDeleted(deleted)
	s.logger.Info("uploads sweep finished",
		zap.String("job_id", job.ID),
		zap.Int("scanned", len(keys)),
		zap.Int("deleted", deleted))
	return nil
}

func keyTimestamp(key string) (time.Time, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '-' {
			var ms int64
			if _, err := fmt.Sscanf(key[:i], "%d", &ms); err != nil {
				return time.Time{}, false
			}
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}
