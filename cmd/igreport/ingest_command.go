package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"igreport/internal/config"
	"igreport/internal/imagestore"
	"igreport/internal/ingest"
	"igreport/internal/logging"
	"igreport/internal/notifications"
	"igreport/internal/services"
	"igreport/internal/store"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "ingest <image...>",
		Short: "Extract username and followers from screenshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if jobs <= 0 {
					jobs = cfg.CLI.Jobs
				}
				return runIngest(cmd.Context(), ingestRun{
					cfg:    cfg,
					store:  st,
					actor:  actor,
					files:  args,
					jobs:   jobs,
					out:    cmd.OutOrStdout(),
					logger: logger,
					notify: notifications.NewService(cfg),
				})
			})
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Images processed in parallel (default cli.jobs)")
	return cmd
}

type ingestRun struct {
	cfg    *config.Config
	store  *store.Store
	actor  string
	files  []string
	jobs   int
	out    io.Writer
	logger *slog.Logger
	notify notifications.Service
}

type ingestResult struct {
	file    string
	outcome ingest.Outcome
	err     error
}

func runIngest(ctx context.Context, run ingestRun) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := run.store.OpenSession(ctx, run.actor); err != nil {
		return noOpenSessionHint(err)
	}

	// One process at a time spends the remote budget.
	if run.cfg.HasRemoteCredential() {
		lock := flock.New(run.cfg.RemoteLockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire remote lock: %w", err)
		}
		if !locked {
			return errors.New("another igreport ingest is using the remote budget; try again when it finishes")
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	images, err := imagestore.New(run.cfg.Paths.ImageDir)
	if err != nil {
		return err
	}

	var outMu sync.Mutex
	printf := func(format string, args ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(run.out, format, args...)
	}

	observer := newNoticeObserver(run.notify, printf, run.logger)
	parts, err := buildPipeline(run.cfg, run.store, run.logger, observer)
	if err != nil {
		return err
	}
	observer.mode = string(parts.mode)

	started := time.Now()
	results := make([]ingestResult, len(run.files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(run.jobs, 1))
	for i, file := range run.files {
		group.Go(func() error {
			results[i] = ingestOne(groupCtx, parts.pipeline, images, run.actor, file, run.logger)
			// A failed image never cancels its siblings.
			return nil
		})
	}
	_ = group.Wait()

	var errs []error
	processed, needsCorrection := 0, 0
	colorize := shouldColorize(run.out)
	for _, res := range results {
		label := filepath.Base(res.file)
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.file, res.err))
			printf("%s\n", renderStatusLine(label, statusError, res.err.Error(), colorize))
			continue
		}
		processed++
		if res.outcome.Kind.NeedsCorrection() {
			needsCorrection++
		}
		printf("%s\n", renderStatusLine(label, outcomeStatus(res.outcome.Kind), res.outcome.Message, colorize))
	}

	elapsed := time.Since(started)
	printf("Processed %d of %d image(s), %d need correction\n", processed, len(run.files), needsCorrection)
	if err := run.notify.NotifyBatchCompleted(ctx, processed, needsCorrection, elapsed); err != nil {
		run.logger.Warn("batch notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
	if len(errs) > 0 {
		if err := run.notify.NotifyError(ctx, errors.Join(errs...), "ingest"); err != nil {
			run.logger.Warn("error notification failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "notification_failed"),
			)
		}
	}
	run.logger.Info("ingest finished",
		logging.String(logging.FieldEventType, "ingest_finished"),
		logging.Int("processed", processed),
		logging.Int("needs_correction", needsCorrection),
		logging.Int("failed", len(errs)),
		logging.Duration("elapsed", elapsed),
	)
	return errors.Join(errs...)
}

func ingestOne(ctx context.Context, pipeline *ingest.Pipeline, images *imagestore.Store, actor, file string, logger *slog.Logger) ingestResult {
	ref, data, err := images.Import(file)
	if err != nil {
		return ingestResult{file: file, err: err}
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	outcome, err := pipeline.Process(ctx, ingest.Request{Actor: actor, Image: data, ImageRef: ref})
	if err != nil {
		// No item references the copy.
		if rmErr := images.Remove(ref); rmErr != nil {
			logger.Warn("archived image cleanup failed",
				logging.Error(rmErr),
				logging.String("image_ref", ref),
				logging.String(logging.FieldEventType, "image_cleanup_failed"),
			)
		}
	}
	return ingestResult{file: file, outcome: outcome, err: err}
}

// noticeObserver prints in-flight notices and forwards them to ntfy.
type noticeObserver struct {
	notify     notifications.Service
	printf     func(format string, args ...any)
	logger     *slog.Logger
	mode       string
	remoteOnce sync.Once
}

func newNoticeObserver(notify notifications.Service, printf func(string, ...any), logger *slog.Logger) *noticeObserver {
	return &noticeObserver{notify: notify, printf: printf, logger: logger}
}

func (o *noticeObserver) Notice(ctx context.Context, notice ingest.Notice) {
	var err error
	switch notice.Kind {
	case ingest.NoticeQueued:
		o.printf("%s: %s\n", notice.ImageRef, notice.Message)
		err = o.notify.NotifyQueueDelay(ctx, notice.ImageRef, notice.Wait)
	case ingest.NoticeQueuedTooLong:
		o.printf("%s: %s\n", notice.ImageRef, notice.Message)
		err = o.notify.NotifyManualCorrection(ctx, notice.ImageRef, notice.Message)
	case ingest.NoticeRemoteUnavailable:
		o.remoteOnce.Do(func() {
			o.printf("%s\n", notice.Message)
			err = o.notify.NotifyRemoteUnavailable(ctx, o.mode)
		})
	}
	if err != nil {
		o.logger.Warn("notice delivery failed",
			logging.Error(err),
			logging.String("notice", string(notice.Kind)),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}
