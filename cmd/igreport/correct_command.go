package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igreport/internal/config"
	"igreport/internal/imagestore"
	"igreport/internal/ingest"
	"igreport/internal/logging"
	"igreport/internal/store"
)

func newCorrectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "correct <username=... followers=...>",
		Short: "Fix the most recent item of the open session",
		Long: "Apply a correction to the latest item. Either field may be omitted:\n\n" +
			"  igreport correct username=sakura9neko followers=80.2k\n" +
			"  igreport correct followers=1,200",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			req, err := ingest.ParseCorrection(strings.Join(args, " "))
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				parts, err := buildPipeline(cfg, st, logger, nil)
				if err != nil {
					return err
				}
				_, message, err := parts.pipeline.Correct(cmd.Context(), actor, req)
				if err != nil {
					return noOpenSessionHint(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			})
		},
	}
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Delete the most recent item of the open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				parts, err := buildPipeline(cfg, st, logger, nil)
				if err != nil {
					return err
				}
				item, err := parts.pipeline.Undo(cmd.Context(), actor)
				if err != nil {
					return noOpenSessionHint(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d (%s)\n", item.ID, displayOrDash(item.Identity))
				if item.ImageRef == "" {
					return nil
				}
				images, err := imagestore.New(cfg.Paths.ImageDir)
				if err == nil {
					err = images.Remove(item.ImageRef)
				}
				if err != nil {
					logger.Warn("archived image cleanup failed",
						logging.Error(err),
						logging.String("image_ref", item.ImageRef),
						logging.String(logging.FieldEventType, "image_cleanup_failed"),
					)
				}
				return nil
			})
		},
	}
}

func displayOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
