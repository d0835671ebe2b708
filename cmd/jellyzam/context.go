package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"jellyzam/internal/config"
	"jellyzam/internal/identification"
	"jellyzam/internal/library"
	"jellyzam/internal/logging"
	"jellyzam/internal/notifications"
	"jellyzam/internal/organizer"
	"jellyzam/internal/recognition"
	"jellyzam/internal/sampler"
	"jellyzam/internal/services/jellyfin"
)

// retryBackoff is the first delay between recognition retries.
const retryBackoff = 2 * time.Second

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger builds the command logger. Console output goes to the command's
// stderr so stdout carries only command output.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	opts := logging.OptionsFromConfig(cfg)
	opts.Console = cmd.ErrOrStderr()
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// session bundles the collaborators most commands need.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *library.Store
}

func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &session{cfg: cfg, logger: logger, store: store}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// persister returns the catalog, wrapped with ID3 write-back when enabled.
func (s *session) persister() library.Persister {
	if s.cfg.Identification.WriteTags {
		return library.NewTaggingPersister(s.store, s.logger)
	}
	return s.store
}

func (s *session) organizer() *organizer.Engine {
	return organizer.NewEngineFromConfig(s.cfg, s.persister(), s.logger)
}

func (s *session) orchestrator(progress identification.ProgressFunc) (*identification.Orchestrator, error) {
	if err := s.cfg.RequireRecognition(); err != nil {
		return nil, err
	}
	smp, err := sampler.FromConfig(s.cfg)
	if err != nil {
		return nil, err
	}
	client, creds := recognition.FromConfig(s.cfg, s.logger)
	deps := identification.Dependencies{
		Sampler:     smp,
		Recognizer:  recognition.WithRetry(client, s.cfg.Recognition.MaxRetries, retryBackoff),
		Credentials: creds,
		Persister:   s.persister(),
		Organizer:   s.organizer(),
		Recorder:    s.store,
		Notifier:    notifications.NewService(s.cfg),
		Refresher:   jellyfin.NewConfiguredService(s.cfg),
		Progress:    progress,
		Logger:      s.logger,
	}
	return identification.NewOrchestrator(deps, identification.OptionsFromConfig(s.cfg)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
