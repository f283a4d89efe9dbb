package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	// DefaultSweepInterval is used when no interval is configured.
	DefaultSweepInterval = time.Hour
)

// RefPruner finds and removes project references to deleted bookmarks.
type RefPruner interface {
	DanglingRefs() map[string][]string
	PruneDanglingRefs(ctx context.Context) int
}

// RefSweeper periodically removes dangling project references.
type RefSweeper struct {
	lib           RefPruner
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewRefSweeper creates a new sweeper. manualTrigger may be nil.
func NewRefSweeper(
	lib RefPruner,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RefSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &RefSweeper{
		lib:           lib,
		logger:        log.With(logger.Component("sweeper")),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs a sweep immediately, then every interval and on each manual
// trigger until Stop is called or ctx is done.
func (s *RefSweeper) Start(ctx context.Context) error {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.manualTrigger:
				s.logger.Info("manual sweep triggered")
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (s *RefSweeper) Stop() {
	close(s.stopCh)
}

// Sweep removes every dangling reference and returns how many were removed.
func (s *RefSweeper) Sweep(ctx context.Context) int {
	dangling := s.lib.DanglingRefs()
	if len(dangling) == 0 {
		s.logger.Debug("no dangling references to sweep")
		return 0
	}

	for projectID, ids := range dangling {
		s.logger.Info("sweeping dangling references",
			logger.String("project_id", projectID),
			logger.Strings("bookmark_ids", ids))
	}

	removed := s.lib.PruneDanglingRefs(ctx)
	s.logger.Info("sweep completed",
		logger.Int("projects", len(dangling)),
		logger.Int("removed", removed))
	return removed
}
