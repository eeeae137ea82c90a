package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"igreport/internal/escalation"
	"igreport/internal/extraction"
	"igreport/internal/logging"
	"igreport/internal/matching"
	"igreport/internal/services"
	"igreport/internal/store"
)

// Dependencies wires a Pipeline. Remote and Estimator may be nil when no
// remote credential is configured.
type Dependencies struct {
	Local          LocalExtractor
	Remote         RemoteExtractor
	Estimator      WaitEstimator
	Store          Store
	Policy         escalation.Policy
	MatchThreshold int
	Observer       Observer
	Logger         *slog.Logger
}

// Pipeline processes images for any number of actors. It is safe for
// concurrent use; the remote scheduler is the only shared state.
type Pipeline struct {
	local     LocalExtractor
	remote    RemoteExtractor
	estimator WaitEstimator
	store     Store
	policy    escalation.Policy
	threshold int
	observer  Observer
	logger    *slog.Logger
}

// New constructs a Pipeline.
func New(deps Dependencies) (*Pipeline, error) {
	if deps.Local == nil {
		return nil, errors.New("local extractor is required")
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	p := &Pipeline{
		local:     deps.Local,
		remote:    deps.Remote,
		estimator: deps.Estimator,
		store:     deps.Store,
		policy:    deps.Policy,
		threshold: deps.MatchThreshold,
		observer:  deps.Observer,
		logger:    logging.NewComponentLogger(deps.Logger, "ingest"),
	}
	if p.policy.Mode == "" {
		p.policy.Mode = escalation.ModeHybrid
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p, nil
}

func (p *Pipeline) hasCredential() bool {
	return p.remote != nil && p.remote.Available()
}

// Process extracts, matches, and stores one image. Extraction failures never
// surface as errors; they produce a degraded item and an actionable message.
// An error is returned only when the actor has no open session or the item
// could not be stored.
func (p *Pipeline) Process(ctx context.Context, req Request) (Outcome, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "ingest", "process", "actor is required", nil)
	}
	if strings.TrimSpace(req.ImageRef) == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "ingest", "process", "image reference is required", nil)
	}
	session, err := p.store.OpenSession(ctx, actor)
	if err != nil {
		return Outcome{}, fmt.Errorf("ingest %s: %w", req.ImageRef, err)
	}
	ctx = services.WithActor(ctx, actor)
	ctx = services.WithSessionID(ctx, session.ID)
	logger := logging.WithContext(ctx, p.logger).With(logging.String("image_ref", req.ImageRef))

	if p.policy.Mode == escalation.ModeManual {
		decision := p.policy.Decide(false, p.hasCredential())
		logger.Info("manual mode, skipping extraction",
			logging.String(logging.FieldEventType, "manual_requested"),
			logging.String("reason", decision.Reason),
		)
		item, err := p.persistStub(ctx, session.ID, req.ImageRef, OutcomeManualRequested, "")
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Kind:     OutcomeManualRequested,
			Item:     item,
			Match:    matching.Result{Index: matching.NoMatch},
			Decision: decision,
			Message:  manualMessage(),
		}, nil
	}

	localCtx := services.WithStage(ctx, "local")
	local := p.local.Extract(localCtx, req.Image)
	local.Source = extraction.SourceLocal
	fields := escalation.Normalize(local)
	localOK := fields.Complete()

	decision := p.policy.Decide(localOK, p.hasCredential())
	logger.Info("escalation decided",
		logging.String(logging.FieldEventType, "escalation_decision"),
		logging.String("mode", string(p.policy.Mode)),
		logging.Bool("local_ok", localOK),
		logging.Bool("call_remote", decision.CallRemote),
		logging.String("reason", decision.Reason),
	)

	out := Outcome{Decision: decision}
	failureErr := local.Err

	if decision.RemoteUnavailable {
		logging.WarnWithContext(logger, "remote extraction wanted but unavailable", "remote_unavailable",
			logging.String("mode", string(p.policy.Mode)),
			logging.String(logging.FieldErrorHint, "set OPENAI_API_KEY or remote.api_key"),
		)
		if !localOK {
			failureErr = services.Wrap(services.ErrRemoteUnavailable, "remote", "extract", "api key not configured", nil)
			p.observer.Notice(ctx, Notice{
				Kind:     NoticeRemoteUnavailable,
				Actor:    actor,
				ImageRef: req.ImageRef,
				Message:  remoteUnavailableMessage(),
			})
		}
	}

	if decision.CallRemote {
		wait := p.estimateWait()
		gate := p.policy.Gate(wait)
		out.Gate = gate
		eta := escalation.FormatETA(wait)

		switch gate.Action {
		case escalation.GateBail:
			logging.WarnWithContext(logger, "remote queue too long, storing stub", "remote_queue_bail",
				logging.Duration("estimated_wait", wait),
				logging.Duration("max_start_wait", p.policy.MaxStartWait),
				logging.String(logging.FieldErrorHint, "reply with a correction or raise queue.max_start_wait_seconds"),
			)
			message := queuedTooLongMessage(eta)
			p.observer.Notice(ctx, Notice{
				Kind:     NoticeQueuedTooLong,
				Actor:    actor,
				ImageRef: req.ImageRef,
				Wait:     wait,
				Message:  message,
			})
			item, err := p.persistStub(ctx, session.ID, req.ImageRef, OutcomeQueuedTooLong, "queued_too_long")
			if err != nil {
				return Outcome{}, err
			}
			out.Kind = OutcomeQueuedTooLong
			out.Item = item
			out.Match = matching.Result{Index: matching.NoMatch}
			out.Failure = item.Failure
			out.Message = message
			return out, nil
		case escalation.GateAdvise:
			logger.Info("remote call queued",
				logging.String(logging.FieldEventType, "remote_queue_advisory"),
				logging.Duration("estimated_wait", wait),
			)
			p.observer.Notice(ctx, Notice{
				Kind:     NoticeQueued,
				Actor:    actor,
				ImageRef: req.ImageRef,
				Wait:     wait,
				Message:  queuedMessage(eta),
			})
		}

		remoteCtx := services.WithStage(ctx, "remote")
		remote := p.remote.Extract(remoteCtx, req.Image)
		remote.Source = extraction.SourceRemote
		out.RemoteCalled = true
		fields = escalation.Merge(local, remote)
		if remote.Err != nil {
			failureErr = remote.Err
		}
	}

	if fields.Complete() {
		failureErr = nil
	}

	order, err := p.store.GetOrder(ctx, actor)
	if err != nil {
		return Outcome{}, fmt.Errorf("load order: %w", err)
	}
	match := p.match(fields.Identity, order)

	kind := classify(fields, order, match)
	item := &store.Item{
		SessionID:          session.ID,
		OrderIndex:         match.OrderIndex(),
		Identity:           fields.Identity,
		FollowersRaw:       fields.FollowersRaw,
		FollowersCanonical: fields.FollowersCanonical,
		Confidence:         fields.Confidence,
		ImageRef:           req.ImageRef,
		Source:             string(fields.Source),
		Outcome:            string(kind),
		Failure:            services.FailureKind(failureErr),
	}
	stored, err := p.store.InsertItem(ctx, item)
	if err != nil {
		return Outcome{}, fmt.Errorf("store item: %w", err)
	}

	out.Kind = kind
	out.Item = stored
	out.Match = match
	out.Failure = stored.Failure
	out.Message = outcomeMessage(kind, fields, match)

	itemLogger := logging.WithContext(services.WithItemID(ctx, stored.ID), p.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "item_stored"),
		logging.String("outcome", string(kind)),
		logging.String("identity", stored.Identity),
		logging.String("followers", stored.FollowersCanonical),
		logging.Int("order_index", stored.OrderIndex),
		logging.Int("match_score", match.Score),
		logging.Float64("confidence", stored.Confidence),
		logging.Bool("remote_called", out.RemoteCalled),
	}
	if kind.NeedsCorrection() {
		attrs = append(attrs,
			logging.String("failure", stored.Failure),
			logging.String(logging.FieldErrorHint, "reply with username=handle followers=1234"),
		)
		logging.WarnWithContext(itemLogger, "item needs correction", "item_needs_correction", attrs...)
	} else {
		itemLogger.Info("item stored", logging.Args(attrs...)...)
	}
	return out, nil
}

func (p *Pipeline) estimateWait() time.Duration {
	if p.estimator == nil {
		return 0
	}
	return p.estimator.EstimateWait()
}

func (p *Pipeline) match(identity string, order []string) matching.Result {
	if identity == "" || len(order) == 0 {
		return matching.Result{Index: matching.NoMatch}
	}
	return matching.BestMatch(identity, order, p.threshold)
}

func (p *Pipeline) persistStub(ctx context.Context, sessionID int64, imageRef string, kind OutcomeKind, failure string) (*store.Item, error) {
	item, err := p.store.InsertItem(ctx, &store.Item{
		SessionID: sessionID,
		ImageRef:  imageRef,
		Outcome:   string(kind),
		Failure:   failure,
	})
	if err != nil {
		return nil, fmt.Errorf("store stub item: %w", err)
	}
	return item, nil
}

func classify(fields escalation.Fields, order []string, match matching.Result) OutcomeKind {
	switch {
	case !fields.Complete():
		return OutcomeNeedsCorrection
	case len(order) > 0 && !match.Matched():
		return OutcomeUnmatched
	default:
		return OutcomeDetected
	}
}

func outcomeMessage(kind OutcomeKind, fields escalation.Fields, match matching.Result) string {
	switch kind {
	case OutcomeDetected:
		return detectedMessage(fields.Identity, fields.FollowersCanonical, match.OrderIndex(), match.Score)
	case OutcomeUnmatched:
		return unmatchedMessage(fields.Identity, fields.FollowersCanonical)
	default:
		return needsCorrectionMessage(fields)
	}
}
