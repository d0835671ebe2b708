package identification

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"jellyzam/internal/config"
	"jellyzam/internal/library"
	"jellyzam/internal/logging"
	"jellyzam/internal/notifications"
	"jellyzam/internal/organizer"
	"jellyzam/internal/recognition"
	"jellyzam/internal/sampler"
	"jellyzam/internal/services"
	"jellyzam/internal/services/jellyfin"
)

// TrackState is a step of the per-track pipeline.
type TrackState string

const (
	StatePending          TrackState = "pending"
	StateMetadataComplete TrackState = "metadata_complete"
	StateSampling         TrackState = "sampling"
	StateSampled          TrackState = "sampled"
	StateRecognizing      TrackState = "recognizing"
	StateMatched          TrackState = "matched"
	StateUnmatched        TrackState = "unmatched"
	StateReconciling      TrackState = "reconciling"
	StateOrganizing       TrackState = "organizing"
	StateDone             TrackState = "done"
	StateFailed           TrackState = "failed"
	StateCancelled        TrackState = "cancelled"
)

// TrackOutcome is the result of running the pipeline for one track.
// Success=false means the track failed at sampling, recognition or
// reconciliation (Err says why). An unmatched track is a success that was not
// identified.
type TrackOutcome struct {
	TrackID         string
	Path            string
	Success         bool
	Identified      bool
	Organized       bool
	AlreadyComplete bool
	State           TrackState
	Selection       Selection
	Reconcile       ReconcileOutcome
	Plan            organizer.Plan
	Err             error
}

// Cancelled reports whether the track stopped because the run was cancelled.
func (o TrackOutcome) Cancelled() bool { return o.State == StateCancelled }

// Organizer is the subset of the organization engine the orchestrator uses.
type Organizer interface {
	Organize(ctx context.Context, track *library.Track, basePath string) organizer.Plan
	LockBasePath(basePath string) (*organizer.BasePathLock, error)
	CleanupEmptyDirectories(ctx context.Context, basePath string) organizer.CleanupReport
}

// RunRecorder persists batch summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, run library.RunRecord) error
}

// InitialScanMarker persists whether the initial full scan has completed.
type InitialScanMarker interface {
	InitialScanCompleted(ctx context.Context) (bool, error)
	MarkInitialScanCompleted(ctx context.Context) error
}

// ProgressFunc receives a stats snapshot after every processed track.
type ProgressFunc func(stats ScanStats)

// Options shapes identification behaviour.
type Options struct {
	Threshold      float64
	Overwrite      bool
	Organize       bool
	BasePath       string
	CleanupEmpty   bool
	MaxSampleBytes int
	Workers        int
	RunInitialScan bool
}

// OptionsFromConfig maps the configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{Threshold: 0.8, Workers: 1}
	}
	return Options{
		Threshold:      cfg.Identification.ConfidenceThreshold,
		Overwrite:      cfg.Identification.OverwriteExisting,
		Organize:       cfg.Organize.Enabled,
		BasePath:       cfg.Organize.BasePath,
		CleanupEmpty:   cfg.Organize.CleanupEmptyDirs,
		MaxSampleBytes: cfg.Sample.MaxBytes,
		Workers:        cfg.Scan.Workers,
		RunInitialScan: cfg.Scan.RunInitialScan,
	}
}

// Dependencies are the collaborators of an Orchestrator. Sampler, Recognizer
// and Persister are required; the rest are optional.
type Dependencies struct {
	Sampler     sampler.Sampler
	Recognizer  recognition.Recognizer
	Credentials recognition.Credentials
	Persister   library.Persister
	Organizer   Organizer
	Recorder    RunRecorder
	Notifier    notifications.Service
	Refresher   jellyfin.Service
	Progress    ProgressFunc
	Logger      *slog.Logger
}

// Orchestrator runs the identification pipeline for single tracks and batches.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator builds an orchestrator from its collaborators.
func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if deps.Refresher == nil {
		deps.Refresher = jellyfin.NewConfiguredService(nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "identification"),
	}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// IdentifyTrack runs sample → recognize → select → reconcile → organize for
// one borrowed track. It never panics or returns an error: every failure is
// captured in the outcome. Organization failures do not affect Success.
func (o *Orchestrator) IdentifyTrack(ctx context.Context, track *library.Track) TrackOutcome {
	outcome := TrackOutcome{State: StatePending}
	if track == nil {
		return o.fail(ctx, outcome, services.Wrap(services.ErrValidation, "identification", "identify track", "track is nil", nil))
	}
	outcome.TrackID = track.ID
	outcome.Path = track.Path
	ctx = services.WithTrackID(ctx, track.ID)
	logger := logging.WithContext(ctx, o.logger)

	if err := ctx.Err(); err != nil {
		return o.fail(ctx, outcome, err)
	}
	if err := o.requireCollaborators(); err != nil {
		return o.fail(ctx, outcome, err)
	}

	if !o.opts.Overwrite && HasCompleteMetadata(track) {
		outcome.State = StateMetadataComplete
		outcome.AlreadyComplete = true
		outcome.Success = true
		outcome.Reconcile = ReconcileOutcome{AlreadyComplete: true}
		logger.Debug("track metadata already complete; skipping recognition",
			logging.Args(logging.DecisionAttrs("recognition", "skip", "metadata_complete")...)...)
		return o.organize(ctx, logger, track, outcome)
	}

	outcome.State = StateSampling
	sampleCtx := services.WithStage(ctx, "sampling")
	sample, err := o.deps.Sampler.Sample(sampleCtx, track.Path, o.opts.MaxSampleBytes)
	if err != nil {
		return o.fail(ctx, outcome, err)
	}
	outcome.State = StateSampled
	logger.Debug("sample extracted", logging.Int("sample_bytes", len(sample.Data)))

	outcome.State = StateRecognizing
	candidates, err := o.deps.Recognizer.Identify(services.WithStage(ctx, "recognizing"), sample, o.deps.Credentials)
	if err != nil {
		return o.fail(ctx, outcome, err)
	}

	outcome.Selection = Select(candidates, o.opts.Threshold)
	if !outcome.Selection.Accepted {
		outcome.State = StateUnmatched
		outcome.Success = true
		reason := "below_threshold"
		if len(candidates) == 0 {
			reason = "no_candidates"
		}
		logger.Info("no confident match",
			logging.Args(append(logging.DecisionAttrs("match_selection", "reject", reason),
				logging.Int("candidates", len(candidates)),
				logging.Confidence("confidence", outcome.Selection.Confidence),
				logging.Float64("threshold", o.opts.Threshold))...)...)
		o.notify(ctx, logger, func(n notifications.Service) error {
			return n.NotifyTrackUnmatched(ctx, filepath.Base(track.Path))
		})
		return outcome
	}
	outcome.State = StateMatched
	match := outcome.Selection.Match
	logger.Info("match accepted",
		logging.Args(append(logging.DecisionAttrs("match_selection", "accept", "confidence_at_or_above_threshold"),
			logging.String("match_id", match.ID.String()),
			logging.String("title", match.Track.Title),
			logging.String("artist", match.Track.ArtistName()),
			logging.Confidence("confidence", outcome.Selection.Confidence),
			logging.Float64("threshold", o.opts.Threshold))...)...)

	outcome.State = StateReconciling
	reconciled, err := Reconcile(services.WithStage(ctx, "reconciling"), track, match.Track, o.opts.Overwrite, o.deps.Persister)
	if err != nil {
		return o.fail(ctx, outcome, err)
	}
	outcome.Reconcile = reconciled
	outcome.Identified = true
	outcome.Success = true
	if reconciled.Changed {
		logger.Info("track metadata updated",
			logging.String("fields", strings.Join(reconciled.Fields, ",")),
			logging.String("display", track.DisplayName()))
	}
	o.notify(ctx, logger, func(n notifications.Service) error {
		return n.NotifyTrackIdentified(ctx, track.DisplayName(), outcome.Selection.Confidence)
	})

	return o.organize(ctx, logger, track, outcome)
}

func (o *Orchestrator) organize(ctx context.Context, logger *slog.Logger, track *library.Track, outcome TrackOutcome) TrackOutcome {
	if !o.opts.Organize || o.deps.Organizer == nil {
		outcome.State = StateDone
		return outcome
	}
	if ctx.Err() != nil {
		// Metadata is already applied; the move waits for the next run.
		outcome.State = StateDone
		return outcome
	}
	outcome.State = StateOrganizing
	plan := o.deps.Organizer.Organize(services.WithStage(ctx, "organizing"), track, o.opts.BasePath)
	outcome.Plan = plan
	outcome.Organized = plan.Status == organizer.StatusMoved
	outcome.Path = track.Path
	if plan.Status == organizer.StatusSkippedFailed {
		logger.Debug("organization skipped after failure", logging.Error(plan.Err))
	}
	outcome.State = StateDone
	return outcome
}

func (o *Orchestrator) fail(ctx context.Context, outcome TrackOutcome, err error) TrackOutcome {
	outcome.Success = false
	outcome.Err = err
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome.State = StateCancelled
		return outcome
	}
	failedAt := outcome.State
	outcome.State = StateFailed
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "track identification failed", "track_failed",
		logging.String("path", outcome.Path),
		logging.String("failed_at", string(failedAt)),
		logging.String("reason", services.FailureReason(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
		logging.String(logging.FieldImpact, "track skipped; the rest of the run continues"),
	)
	return outcome
}

func (o *Orchestrator) requireCollaborators() error {
	switch {
	case o.deps.Sampler == nil:
		return services.Wrap(services.ErrConfiguration, "identification", "validate", "sampler not configured", nil)
	case o.deps.Recognizer == nil:
		return services.Wrap(services.ErrConfiguration, "identification", "validate", "recognizer not configured", nil)
	case o.deps.Persister == nil:
		return services.Wrap(services.ErrConfiguration, "identification", "validate", "persister not configured", nil)
	}
	return nil
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, send func(notifications.Service) error) {
	if o.deps.Notifier == nil {
		return
	}
	if err := send(o.deps.Notifier); err != nil && ctx.Err() == nil {
		logger.Debug("notification failed", logging.Error(err))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "file moved or deleted; run jellyzam import to resync the catalog"
	case errors.Is(err, services.ErrSampleRead):
		return "check file permissions and that the file is not truncated"
	case errors.Is(err, services.ErrAuthentication):
		return "check recognition.api_key or JELLYZAM_API_KEY"
	case errors.Is(err, services.ErrTransient):
		return "recognition service unreachable or throttled; retry later or raise recognition.max_retries"
	case errors.Is(err, services.ErrMalformedResponse):
		return "recognition service returned an unexpected payload; check recognition.base_url"
	case errors.Is(err, services.ErrMetadataPersist):
		return "check the catalog database in paths.state_dir"
	default:
		return "check logs for details"
	}
}
