package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jellyzam/internal/recognition"
)

func newDetailsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "details <track-key>",
		Short: "Look up a recognition service track by its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireRecognition(); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			client, creds := recognition.FromConfig(cfg, logger)
			details, err := client.TrackDetails(cmd.Context(), args[0], creds)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"key":    details.Key.String(),
					"title":  details.Title,
					"artist": details.ArtistName(),
					"album":  details.Album,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:    %s\n", details.Key)
			fmt.Fprintf(out, "Title:  %s\n", details.Title)
			fmt.Fprintf(out, "Artist: %s\n", details.ArtistName())
			if details.Album != "" {
				fmt.Fprintf(out, "Album:  %s\n", details.Album)
			}
			return nil
		},
	}
}
