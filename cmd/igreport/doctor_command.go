package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"igreport/internal/config"
	"igreport/internal/escalation"
	"igreport/internal/imagestore"
	"igreport/internal/notifications"
	"igreport/internal/ocr/tesseract"
	"igreport/internal/ratelimit"
	"igreport/internal/store"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipRemote bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, OCR, storage, and remote access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0
			report := func(label string, kind statusKind, message string) {
				if kind == statusError {
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(label, kind, message, colorize))
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			mode, err := escalation.ParseMode(cfg.Extraction.Mode)
			if err != nil {
				report("Mode", statusError, err.Error())
			} else {
				report("Mode", statusOK, string(mode))
			}
			if images, err := imagestore.New(cfg.Paths.ImageDir); err != nil {
				report("Image archive", statusError, err.Error())
			} else {
				checkDirectory(report, "Image archive", images.Dir())
			}
			checkDirectory(report, "Logs", cfg.Paths.LogDir)
			checkStore(report, cfg)

			for _, line := range renderSectionHeader("Extraction", colorize) {
				fmt.Fprintln(out, line)
			}
			if version := tesseract.Version(); version != "" {
				report("Tesseract", statusOK, version)
			} else {
				report("Tesseract", statusWarn, "version unavailable")
			}

			budget := remoteBudget(cfg)
			interval := budget.MinInterval()
			report("Remote budget", statusInfo, fmt.Sprintf("one call every %s", escalation.FormatETA(interval)))
			if interval >= cfg.MaxStartWait() {
				report("Queue ceiling", statusWarn, "every queued call after the first will exceed max_start_wait_seconds")
			}

			switch {
			case !cfg.HasRemoteCredential():
				kind := statusInfo
				if mode == escalation.ModeRemote {
					kind = statusWarn
				}
				report("Remote", kind, "no api key; remote fallback disabled")
			case skipRemote:
				report("Remote", statusInfo, "check skipped")
			default:
				client := newRemoteClient(cfg, ratelimit.New(budget), ctx.loggerValue())
				checkCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				err := client.HealthCheck(checkCtx)
				cancel()
				if err != nil {
					report("Remote", statusError, err.Error())
				} else {
					report("Remote", statusOK, client.Model())
				}
			}

			if cfg.Notifications.NtfyTopic == "" {
				report("Notifications", statusInfo, "ntfy disabled")
			} else {
				report("Notifications", statusOK, cfg.Notifications.NtfyTopic)
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipRemote, "skip-remote", false, "Do not contact the remote model")
	return cmd
}

func checkDirectory(report func(string, statusKind, string), label, dir string) {
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		report(label, statusError, err.Error())
	case !info.IsDir():
		report(label, statusError, dir+" is not a directory")
	default:
		report(label, statusOK, dir)
	}
}

func checkStore(report func(string, statusKind, string), cfg *config.Config) {
	st, err := store.Open(cfg)
	if err != nil {
		report("Database", statusError, err.Error())
		return
	}
	defer st.Close()
	report("Database", statusOK, st.Path())
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test ntfy notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return errors.New("notifications.ntfy_topic is not set")
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent to %s\n", cfg.Notifications.NtfyTopic)
			return nil
		},
	}
}
