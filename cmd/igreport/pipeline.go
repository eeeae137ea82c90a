package main

import (
	"fmt"
	"log/slog"

	"igreport/internal/config"
	"igreport/internal/escalation"
	"igreport/internal/ingest"
	"igreport/internal/ocr"
	"igreport/internal/ocr/tesseract"
	"igreport/internal/ratelimit"
	"igreport/internal/services/vision"
)

type pipelineParts struct {
	pipeline  *ingest.Pipeline
	scheduler *ratelimit.Scheduler
	remote    *vision.Client
	mode      escalation.Mode
}

func remoteBudget(cfg *config.Config) ratelimit.Budget {
	return ratelimit.Budget{
		RequestsPerMinute: cfg.Remote.MaxRequestsPerMinute,
		TokensPerMinute:   cfg.Remote.MaxTokensPerMinute,
		TokensPerCall:     cfg.Remote.EstimatedTokensPerCall,
	}
}

func newRemoteClient(cfg *config.Config, scheduler *ratelimit.Scheduler, logger *slog.Logger) *vision.Client {
	return vision.NewClient(vision.Config{
		APIKey:         cfg.Remote.APIKey,
		BaseURL:        cfg.Remote.BaseURL,
		Model:          cfg.Remote.Model,
		TimeoutSeconds: cfg.Remote.TimeoutSeconds,
		MaxAttempts:    cfg.Remote.MaxAttempts,
	}, scheduler, vision.WithLogger(logger))
}

// buildPipeline wires the extractors, scheduler, and store into an ingest
// pipeline. The remote client is left out entirely when no key is configured.
func buildPipeline(cfg *config.Config, st ingest.Store, logger *slog.Logger, observer ingest.Observer) (*pipelineParts, error) {
	mode, err := escalation.ParseMode(cfg.Extraction.Mode)
	if err != nil {
		return nil, err
	}

	local := ocr.NewExtractor(tesseract.New(cfg.Extraction.TesseractLanguage, cfg.Extraction.TesseractPSM), logger)
	scheduler := ratelimit.New(remoteBudget(cfg), ratelimit.WithLogger(logger))

	deps := ingest.Dependencies{
		Local:     local,
		Estimator: scheduler,
		Store:     st,
		Policy: escalation.Policy{
			Mode:            mode,
			NotifyThreshold: cfg.NotifyThreshold(),
			MaxStartWait:    cfg.MaxStartWait(),
		},
		MatchThreshold: cfg.Matching.Threshold,
		Observer:       observer,
		Logger:         logger,
	}

	parts := &pipelineParts{scheduler: scheduler, mode: mode}
	if cfg.HasRemoteCredential() {
		parts.remote = newRemoteClient(cfg, scheduler, logger)
		deps.Remote = parts.remote
	}

	pipeline, err := ingest.New(deps)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	parts.pipeline = pipeline
	return parts, nil
}
