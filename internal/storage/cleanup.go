package storage

import (
	"context"
	"time"

	"github.com/shellbridge/authflow/internal/log"
)

// CleanupManager periodically sweeps entries under a key prefix that are
// older than maxAge. The orchestrator uses it to expire stale CSRF state
// records; losing a record never aborts a flow.
type CleanupManager struct {
	storage  Storage
	prefix   string
	maxAge   time.Duration
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(storage Storage, prefix string, maxAge, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		storage:  storage,
		prefix:   prefix,
		maxAge:   maxAge,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the cleanup loop in a goroutine
func (cm *CleanupManager) Start(ctx context.Context) {
	log.LogInfoWithFields("cleanup", "Starting storage cleanup manager", map[string]any{
		"prefix":   cm.prefix,
		"maxAge":   cm.maxAge.String(),
		"interval": cm.interval.String(),
	})

	go cm.run(ctx)
}

// Stop gracefully stops the cleanup loop
func (cm *CleanupManager) Stop() {
	close(cm.stopChan)
	<-cm.doneChan
	log.LogInfoWithFields("cleanup", "Storage cleanup manager stopped", nil)
}

func (cm *CleanupManager) run(ctx context.Context) {
	defer close(cm.doneChan)

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run cleanup immediately on start
	cm.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.cleanup(ctx)
		case <-cm.stopChan:
			// Final sweep on shutdown
			cm.cleanup(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (cm *CleanupManager) cleanup(ctx context.Context) {
	count, err := cm.storage.DeleteOlderThan(ctx, cm.prefix, time.Now().Add(-cm.maxAge))
	if err != nil {
		log.LogErrorWithFields("cleanup", "Failed to sweep expired entries", map[string]any{
			"prefix": cm.prefix,
			"error":  err.Error(),
		})
		return
	}

	if count > 0 {
		log.LogInfoWithFields("cleanup", "Swept expired entries", map[string]any{
			"prefix": cm.prefix,
			"count":  count,
		})
	}
}
