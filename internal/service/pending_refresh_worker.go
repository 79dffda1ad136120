package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultPendingRefreshSchedule runs shortly after midnight so the first
// report of the day already counts the new day's cycles
const DefaultPendingRefreshSchedule = "5 0 * * *"

// PendingRefreshWorker rebuilds pending reports when the calendar day turns
// over and pushes the new totals to connected clients
type PendingRefreshWorker struct {
	pendingService *PendingService
	loanRepo       domain.LoanRepository
	publisher      websocket.EventPublisher
	logger         zerolog.Logger
	schedule       string
	timeout        time.Duration
	cron           *cron.Cron
	mu             sync.Mutex
	running        bool
}

// PendingRefreshWorkerConfig holds configuration for the refresh worker
type PendingRefreshWorkerConfig struct {
	Schedule string         // Cron spec, minute resolution
	Location *time.Location // Zone the schedule is evaluated in
	Timeout  time.Duration  // Upper bound for one run
}

// RefreshResult summarises one refresh run
type RefreshResult struct {
	Workspaces int
	Published  int
	Errors     int
}

// NewPendingRefreshWorker creates a new refresh worker
func NewPendingRefreshWorker(
	pendingService *PendingService,
	loanRepo domain.LoanRepository,
	publisher websocket.EventPublisher,
	logger zerolog.Logger,
	config PendingRefreshWorkerConfig,
) *PendingRefreshWorker {
	if config.Schedule == "" {
		config.Schedule = DefaultPendingRefreshSchedule
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}

	return &PendingRefreshWorker{
		pendingService: pendingService,
		loanRepo:       loanRepo,
		publisher:      publisher,
		logger:         logger.With().Str("component", "pending_refresh_worker").Logger(),
		schedule:       config.Schedule,
		timeout:        config.Timeout,
		cron:           cron.New(cron.WithLocation(config.Location)),
	}
}

// Start registers the refresh job and starts the scheduler
func (w *PendingRefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	jobID, err := w.cron.AddJob(w.schedule, cron.FuncJob(func() {
		runCtx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		w.RefreshAll(runCtx)
	}))
	if err != nil {
		return fmt.Errorf("invalid pending refresh schedule %q: %w", w.schedule, err)
	}

	w.cron.Start()
	w.running = true
	w.logger.Info().
		Str("schedule", w.schedule).
		Int("job_id", int(jobID)).
		Msg("Starting pending refresh worker")
	return nil
}

// Stop stops the scheduler and waits up to 15s for a running job
func (w *PendingRefreshWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping pending refresh worker")
	select {
	case <-w.cron.Stop().Done():
		w.logger.Info().Msg("Pending refresh worker stopped")
	case <-time.After(15 * time.Second):
		w.logger.Warn().Msg("Pending refresh worker shutdown timed out")
	}
}

// IsRunning returns whether the scheduler is running
func (w *PendingRefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RefreshAll rebuilds every cycle-counted report of every workspace with
// active loans and publishes pending.refreshed per report
func (w *PendingRefreshWorker) RefreshAll(ctx context.Context) RefreshResult {
	startTime := time.Now()
	var result RefreshResult

	workspaceIDs, err := w.loanRepo.GetActiveWorkspaceIDs(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to get workspaces for pending refresh")
		result.Errors++
		return result
	}
	result.Workspaces = len(workspaceIDs)
	today := w.pendingService.Today()

	for _, workspaceID := range workspaceIDs {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping pending refresh")
			return result
		default:
		}

		for _, ct := range PendingReportTypes() {
			report, err := w.pendingService.GetPendingReportAsOf(ctx, workspaceID, ct, today)
			if err != nil {
				w.logger.Error().
					Err(err).
					Int32("workspace_id", workspaceID).
					Str("collection_type", string(ct)).
					Msg("Failed to build pending report")
				result.Errors++
				continue
			}

			w.publisher.Publish(workspaceID, websocket.PendingRefreshed(map[string]interface{}{
				"collectionType": ct,
				"asOf":           report.AsOf,
				"totalPending":   report.TotalPending,
				"totalAmount":    report.TotalAmount,
			}))
			result.Published++
		}
	}

	w.logger.Info().
		Int("workspaces", result.Workspaces).
		Int("published", result.Published).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed pending refresh")
	return result
}
