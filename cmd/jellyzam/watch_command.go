package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"jellyzam/internal/library"
	"jellyzam/internal/logging"
	"jellyzam/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Identify audio files as they appear in watched directories",
		Long: "Watch the given directories (default: scan.watch_dirs) and identify new audio files " +
			"once they stop changing. Runs the initial library scan first when scan.run_initial_scan is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if len(args) > 0 {
				sess.cfg.Scan.WatchDirs = args
			}
			if len(sess.cfg.Scan.WatchDirs) == 0 {
				return errors.New("no directories to watch; pass them as arguments or set scan.watch_dirs")
			}
			if !sess.cfg.Identification.AutoIdentify && len(args) == 0 {
				return errors.New("identification.auto_identify is disabled; enable it or pass directories explicitly")
			}

			lock := flock.New(filepath.Join(sess.cfg.LockDir(), "watch.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire watch lock: %w", err)
			}
			if !locked {
				return errors.New("another jellyzam watch is already running")
			}
			defer lock.Unlock()

			if err := requirePreflight(cmd, sess); err != nil {
				return err
			}
			orch, err := sess.orchestrator(nil)
			if err != nil {
				return err
			}

			importer := library.NewImporter(sess.store, sess.cfg.IsAudioFile, sess.logger)
			for _, dir := range sess.cfg.Scan.WatchDirs {
				if _, err := importer.ImportDir(cmd.Context(), dir); err != nil {
					return err
				}
			}
			if result, ran := orch.InitialScan(cmd.Context(), sess.store, sess.store, false); ran && !result.Success {
				logging.WarnWithContext(sess.logger, "initial scan did not complete", "initial_scan_failed",
					logging.String("error_message", result.ErrorMessage),
					logging.String(logging.FieldImpact, "existing tracks stay unidentified until the next scan"),
				)
			}
			if sess.cfg.Scan.RunOnce {
				return nil
			}

			w := watch.NewFromConfig(sess.cfg, nil, importer, orch, sess.logger)
			return w.Run(cmd.Context())
		},
	}
}
