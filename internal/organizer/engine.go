package organizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"jellyzam/internal/config"
	"jellyzam/internal/library"
	"jellyzam/internal/logging"
)

const stage = "organizing"

// maxReprobes bounds how often Organize re-plans after losing a race for a
// target name.
const maxReprobes = 8

// Engine moves tracks into the canonical layout and tidies empty directories.
type Engine struct {
	planner   Planner
	persister library.Persister
	lockDir   string
	logger    *slog.Logger
	move      func(src, dst string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithPersister records each new path through p after a successful move.
func WithPersister(p library.Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithLockDir sets the directory holding base-path lock files.
func WithLockDir(dir string) Option {
	return func(e *Engine) { e.lockDir = strings.TrimSpace(dir) }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs an engine backed by the real filesystem.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		planner: NewPlanner(),
		logger:  logging.NewNop(),
		move:    moveNoClobber,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "organizer")
	return e
}

// NewEngineFromConfig wires the lock directory from cfg.
func NewEngineFromConfig(cfg *config.Config, persister library.Persister, logger *slog.Logger) *Engine {
	opts := []Option{WithPersister(persister), WithLogger(logger)}
	if cfg != nil {
		opts = append(opts, WithLockDir(cfg.LockDir()))
	}
	return NewEngine(opts...)
}

// Organize plans and performs the move of track into basePath. Failures are
// reported in the returned plan and never propagate: the source file stays in
// place and track.Path is left unchanged. On success track.Path is updated and,
// when a persister is configured, the new path is recorded.
func (e *Engine) Organize(ctx context.Context, track *library.Track, basePath string) Plan {
	logger := logging.WithContext(ctx, e.logger)
	if err := ctx.Err(); err != nil {
		return e.failed(track, err)
	}

	plan := e.planner.Plan(track, basePath)
	for attempt := 0; plan.Status == ""; attempt++ {
		err := e.move(plan.Source, plan.Target)
		switch {
		case err == nil:
			plan.Status = StatusMoved
		case errors.Is(err, errTargetTaken) && attempt < maxReprobes:
			logger.Debug("target taken during move; re-probing", logging.String("target", plan.Target))
			plan = e.planner.Plan(track, basePath)
		default:
			plan.Target = plan.Source
			plan.Status = StatusSkippedFailed
			plan.Err = err
		}
	}

	switch plan.Status {
	case StatusSkippedAlreadyCorrect:
		logger.Debug("track already organized", logging.String("path", plan.Source))
	case StatusSkippedFailed:
		logging.WarnWithContext(logger, "organization failed; file left in place", "organize_failed",
			logging.String("source", plan.Source),
			logging.Error(plan.Err),
			logging.String(logging.FieldErrorHint, "check organize.base_path permissions and free space"),
			logging.String(logging.FieldImpact, "track keeps its current path"),
		)
	case StatusMoved:
		e.recordPath(ctx, logger, track, plan.Target)
		logger.Info("track organized",
			logging.String("source", plan.Source),
			logging.String("target", plan.Target))
	}
	return plan
}

func (e *Engine) recordPath(ctx context.Context, logger *slog.Logger, track *library.Track, target string) {
	if e.persister != nil {
		if err := e.persister.UpdatePath(ctx, track, target); err != nil {
			logging.WarnWithContext(logger, "failed to record new track path", "organize_path_persist_failed",
				logging.String("target", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run jellyzam import on the base path to resync the catalog"),
				logging.String(logging.FieldImpact, "catalog still points at the old location"),
			)
		}
	}
	track.Path = target
}

func (e *Engine) failed(track *library.Track, err error) Plan {
	source := ""
	if track != nil {
		source = track.Path
	}
	return Plan{Source: source, Target: source, Status: StatusSkippedFailed, Err: err}
}

// OrganizeAll organizes tracks in order without recognition and returns the
// final path of every visited track keyed by its original path. Tracks left
// unvisited because ctx was cancelled are absent from the map.
func (e *Engine) OrganizeAll(ctx context.Context, tracks []*library.Track, basePath string) map[string]string {
	logger := logging.WithContext(ctx, e.logger)
	results := make(map[string]string, len(tracks))
	moved := 0
	for _, track := range tracks {
		if ctx.Err() != nil {
			logger.Info("organization cancelled", logging.Int("remaining", len(tracks)-len(results)))
			break
		}
		if track == nil {
			continue
		}
		original := track.Path
		plan := e.Organize(ctx, track, basePath)
		results[original] = plan.Final()
		if plan.Status == StatusMoved {
			moved++
		}
	}
	logger.Info("organization pass completed",
		logging.Int("visited", len(results)),
		logging.Int("moved", moved))
	return results
}
