package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jellyzam/internal/library"
	"jellyzam/internal/logging"
	"jellyzam/internal/notifications"
	"jellyzam/internal/services"
)

// Batch kinds recorded in run history.
const (
	KindBatch   = "batch"
	KindUnknown = "unknown"
	KindInitial = "initial"
)

// ScanStats accumulates counts for one run. Processed counts tracks that ran
// to an outcome; tracks interrupted by cancellation are not counted.
type ScanStats struct {
	Total      int
	Processed  int
	Identified int
	Organized  int
	Errored    int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// statsAccumulator serializes updates from concurrent track pipelines.
type statsAccumulator struct {
	mu    sync.Mutex
	stats ScanStats
}

func (a *statsAccumulator) record(outcome TrackOutcome) ScanStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if outcome.Cancelled() {
		return a.stats
	}
	a.stats.Processed++
	if !outcome.Success {
		a.stats.Errored++
	}
	if outcome.Identified {
		a.stats.Identified++
	}
	if outcome.Organized {
		a.stats.Organized++
	}
	return a.stats
}

// begin sets Total once the run is past its start checks; a run that never
// starts reports zero counts.
func (a *statsAccumulator) begin(total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Total = total
}

func (a *statsAccumulator) snapshot() ScanStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *statsAccumulator) finish(now time.Time) ScanStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.FinishedAt = now
	a.stats.Duration = now.Sub(a.stats.StartedAt)
	return a.stats
}

// BatchResult is the final report of a batch run. Success=false only when the
// run could not start or hit an internal fault; per-track failures are
// counted in Stats.Errored instead.
type BatchResult struct {
	RunID        string
	Kind         string
	Success      bool
	Cancelled    bool
	ErrorMessage string
	Stats        ScanStats
	Outcomes     []TrackOutcome
}

type batchConfig struct {
	kind string
}

// BatchOption configures a single RunBatch call.
type BatchOption func(*batchConfig)

// WithKind labels the run in history and notifications.
func WithKind(kind string) BatchOption {
	return func(c *batchConfig) {
		if kind = strings.TrimSpace(kind); kind != "" {
			c.kind = kind
		}
	}
}

// RunBatch runs IdentifyTrack over tracks in the given order, using up to
// Options.Workers concurrent pipelines. Cancellation is checked before each
// track is started; tracks never started are not counted. The deferred
// finalizer always stamps FinishedAt/Duration, even after a panic, and then
// records and announces the run.
func (o *Orchestrator) RunBatch(ctx context.Context, tracks []*library.Track, opts ...BatchOption) (result BatchResult) {
	cfg := batchConfig{kind: KindBatch}
	for _, opt := range opts {
		opt(&cfg)
	}
	acc := &statsAccumulator{stats: ScanStats{StartedAt: time.Now().UTC()}}
	result = BatchResult{RunID: uuid.NewString(), Kind: cfg.kind, Success: true}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, o.logger)

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("internal fault: %v", r)
			logging.ErrorWithContext(logger, "batch run aborted by internal fault", "batch_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "report this with the log file attached"),
			)
		}
		result.Stats = acc.finish(time.Now().UTC())
		o.finalize(ctx, logger, result)
	}()

	if err := o.preflightBatch(); err != nil {
		result.Success = false
		result.ErrorMessage = err.Error()
		return result
	}

	logger.Info("batch run started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("kind", cfg.kind),
		logging.Int("tracks", len(tracks)),
		logging.Int("workers", o.opts.Workers))

	if o.opts.Organize && o.deps.Organizer != nil && len(tracks) > 0 {
		lock, err := o.deps.Organizer.LockBasePath(o.opts.BasePath)
		if err != nil {
			result.Success = false
			result.ErrorMessage = err.Error()
			return result
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Debug("failed to release base path lock", logging.Error(err))
			}
		}()
	}

	acc.begin(len(tracks))
	result.Outcomes = o.runTracks(ctx, logger, tracks, acc)
	result.Cancelled = ctx.Err() != nil

	stats := acc.snapshot()
	if o.opts.Organize && o.opts.CleanupEmpty && o.deps.Organizer != nil && stats.Organized > 0 && !result.Cancelled {
		o.deps.Organizer.CleanupEmptyDirectories(ctx, o.opts.BasePath)
	}
	if stats.Organized > 0 && o.deps.Refresher.Enabled() {
		if err := o.deps.Refresher.Refresh(ctx); err != nil {
			logging.WarnWithContext(logger, "jellyfin refresh failed; library scan may be stale", "jellyfin_refresh_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check jellyfin.url and jellyfin.api_key"),
				logging.String(logging.FieldImpact, "moved tracks appear in Jellyfin after its next scheduled scan"),
			)
		}
	}
	return result
}

func (o *Orchestrator) runTracks(ctx context.Context, logger *slog.Logger, tracks []*library.Track, acc *statsAccumulator) []TrackOutcome {
	outcomes := make([]TrackOutcome, len(tracks))
	started := make([]bool, len(tracks))
	progress := logging.NewProgressSampler(10)
	// Progress reporting is serialized so callbacks need no locking.
	var reportMu sync.Mutex

	handle := func(idx int) {
		outcome := o.identifyIsolated(ctx, tracks[idx])
		outcomes[idx] = outcome
		reportMu.Lock()
		defer reportMu.Unlock()
		stats := acc.record(outcome)
		if progress.ShouldLog(stats.Processed, stats.Total) {
			logger.Info("batch progress",
				logging.Int("processed", stats.Processed),
				logging.Int("total", stats.Total),
				logging.Int("identified", stats.Identified),
				logging.Int("errored", stats.Errored))
		}
		if o.deps.Progress != nil {
			o.deps.Progress(stats)
		}
	}

	workers := o.opts.Workers
	if workers > len(tracks) {
		workers = len(tracks)
	}
	if workers <= 1 {
		for idx := range tracks {
			if ctx.Err() != nil {
				break
			}
			started[idx] = true
			handle(idx)
		}
		return collectStarted(outcomes, started)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				handle(idx)
			}
		}()
	}
	for idx := range tracks {
		if ctx.Err() != nil {
			break
		}
		started[idx] = true
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return collectStarted(outcomes, started)
}

// identifyIsolated converts a panic inside one track pipeline into a failed
// outcome for that track.
func (o *Orchestrator) identifyIsolated(ctx context.Context, track *library.Track) (outcome TrackOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = o.fail(ctx, TrackOutcome{TrackID: trackID(track), Path: trackPath(track)},
				fmt.Errorf("internal fault: %v", r))
		}
	}()
	return o.IdentifyTrack(ctx, track)
}

func collectStarted(outcomes []TrackOutcome, started []bool) []TrackOutcome {
	out := make([]TrackOutcome, 0, len(outcomes))
	for idx, ok := range started {
		if ok {
			out = append(out, outcomes[idx])
		}
	}
	return out
}

func (o *Orchestrator) preflightBatch() error {
	if err := o.requireCollaborators(); err != nil {
		return err
	}
	if strings.TrimSpace(o.deps.Credentials.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "identification", "validate", "recognition api key is not configured", nil)
	}
	return nil
}

// finalize records and announces a finished run. It uses a context detached
// from cancellation so a cancelled run still leaves a history entry.
func (o *Orchestrator) finalize(ctx context.Context, logger *slog.Logger, result BatchResult) {
	stats := result.Stats
	detached := context.WithoutCancel(ctx)

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.String("kind", result.Kind),
		logging.Bool("success", result.Success),
		logging.Bool("cancelled", result.Cancelled),
		logging.Int("total", stats.Total),
		logging.Int("processed", stats.Processed),
		logging.Int("identified", stats.Identified),
		logging.Int("organized", stats.Organized),
		logging.Int("errored", stats.Errored),
		logging.Duration("duration", stats.Duration),
	}
	if result.Success {
		logger.Info("batch run finished", logging.Args(attrs...)...)
	} else {
		attrs = append(attrs, logging.String("error_message", result.ErrorMessage))
		logging.ErrorWithContext(logger, "batch run could not complete", "batch_failed", attrs...)
	}

	if o.deps.Recorder != nil {
		run := library.RunRecord{
			ID:           result.RunID,
			Kind:         result.Kind,
			Success:      result.Success,
			Cancelled:    result.Cancelled,
			ErrorMessage: result.ErrorMessage,
			Total:        stats.Total,
			Processed:    stats.Processed,
			Identified:   stats.Identified,
			Organized:    stats.Organized,
			Errored:      stats.Errored,
			StartedAt:    stats.StartedAt,
			FinishedAt:   stats.FinishedAt,
			Duration:     stats.Duration,
		}
		if err := o.deps.Recorder.RecordRun(detached, run); err != nil {
			logging.WarnWithContext(logger, "failed to record run history", "run_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the catalog database in paths.state_dir"),
				logging.String(logging.FieldImpact, "run missing from jellyzam history"),
			)
		}
	}

	if o.deps.Notifier == nil {
		return
	}
	if !result.Success {
		_ = o.deps.Notifier.NotifyError(detached, errors.New(result.ErrorMessage), result.Kind+" run")
		return
	}
	summary := notifications.BatchSummary{
		Kind:       result.Kind,
		Total:      stats.Total,
		Processed:  stats.Processed,
		Identified: stats.Identified,
		Organized:  stats.Organized,
		Errored:    stats.Errored,
		Cancelled:  result.Cancelled,
		Duration:   stats.Duration,
	}
	if err := o.deps.Notifier.NotifyBatchCompleted(detached, summary); err != nil {
		logger.Debug("batch notification failed", logging.Error(err))
	}
}

// ProcessUnknown runs a batch over the tracks from source whose metadata is
// incomplete and returns how many were identified.
func (o *Orchestrator) ProcessUnknown(ctx context.Context, source library.Source) (int, BatchResult) {
	tracks, err := enumerate(ctx, source)
	if err != nil {
		return 0, o.failedToStart(ctx, KindUnknown, err)
	}
	unknown := make([]*library.Track, 0, len(tracks))
	for _, track := range tracks {
		if !HasCompleteMetadata(track) {
			unknown = append(unknown, track)
		}
	}
	result := o.RunBatch(ctx, unknown, WithKind(KindUnknown))
	return result.Stats.Identified, result
}

// InitialScan runs a batch over the whole library once. It is skipped when
// scan.run_initial_scan is off or a previous initial scan completed, unless
// force is set. ran reports whether a batch was started. A successful,
// uncancelled run marks the scan as completed.
func (o *Orchestrator) InitialScan(ctx context.Context, source library.Source, marker InitialScanMarker, force bool) (result BatchResult, ran bool) {
	logger := logging.WithContext(ctx, o.logger)
	if !force {
		if !o.opts.RunInitialScan {
			logger.Info("initial scan disabled", logging.Args(logging.DecisionAttrs("initial_scan", "skip", "disabled")...)...)
			return BatchResult{Kind: KindInitial, Success: true}, false
		}
		if marker != nil {
			done, err := marker.InitialScanCompleted(ctx)
			if err != nil {
				return o.failedToStart(ctx, KindInitial, err), true
			}
			if done {
				logger.Info("initial scan already completed", logging.Args(logging.DecisionAttrs("initial_scan", "skip", "already_completed")...)...)
				return BatchResult{Kind: KindInitial, Success: true}, false
			}
		}
	}

	tracks, err := enumerate(ctx, source)
	if err != nil {
		return o.failedToStart(ctx, KindInitial, err), true
	}
	result = o.RunBatch(ctx, tracks, WithKind(KindInitial))
	if result.Success && !result.Cancelled && marker != nil {
		if err := marker.MarkInitialScanCompleted(context.WithoutCancel(ctx)); err != nil {
			logging.WarnWithContext(logger, "failed to persist initial scan completion", "initial_scan_mark_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the initial scan runs again on next start"),
			)
		}
	}
	return result, true
}

// failedToStart produces and finalizes a result for a run that never reached
// its tracks.
func (o *Orchestrator) failedToStart(ctx context.Context, kind string, err error) BatchResult {
	now := time.Now().UTC()
	result := BatchResult{
		RunID:        uuid.NewString(),
		Kind:         kind,
		ErrorMessage: err.Error(),
		Stats:        ScanStats{StartedAt: now, FinishedAt: now},
	}
	ctx = services.WithRunID(ctx, result.RunID)
	o.finalize(ctx, logging.WithContext(ctx, o.logger), result)
	return result
}

func enumerate(ctx context.Context, source library.Source) ([]*library.Track, error) {
	if source == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "enumerate tracks", "no track source configured", nil)
	}
	tracks, err := source.Tracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate tracks: %w", err)
	}
	return tracks, nil
}

func trackID(track *library.Track) string {
	if track == nil {
		return ""
	}
	return track.ID
}

func trackPath(track *library.Track) string {
	if track == nil {
		return ""
	}
	return track.Path
}
