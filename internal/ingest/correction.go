package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"igreport/internal/logging"
	"igreport/internal/normalize"
	"igreport/internal/services"
	"igreport/internal/store"
)

var (
	correctionIdentityPattern  = regexp.MustCompile(`(?i)username\s*=\s*([a-z0-9._@-]+)`)
	correctionFollowersPattern = regexp.MustCompile(`(?i)followers\s*=\s*([0-9.,\s]*[km]?)`)
)

// CorrectionRequest carries the fields a user supplied. Empty fields are left
// unchanged on the item.
type CorrectionRequest struct {
	Identity     string
	FollowersRaw string
}

// Empty reports whether no field was supplied.
func (r CorrectionRequest) Empty() bool {
	return r.Identity == "" && r.FollowersRaw == ""
}

// ParseCorrection reads a reply such as "username=handle followers=1.2k".
// Either key may be omitted.
func ParseCorrection(text string) (CorrectionRequest, error) {
	var req CorrectionRequest
	if m := correctionIdentityPattern.FindStringSubmatch(text); m != nil {
		req.Identity = normalize.CleanIdentity(m[1])
	}
	if m := correctionFollowersPattern.FindStringSubmatch(text); m != nil {
		req.FollowersRaw = strings.TrimSpace(m[1])
	}
	if req.Empty() {
		return req, services.Wrap(services.ErrValidation, "correction", "parse",
			"expected username=<handle> and/or followers=<number|k|m>", nil)
	}
	return req, nil
}

// Correct overwrites the supplied fields on the latest item of the actor's
// open session. The order position is recomputed against the current order
// list only when the identity changed.
func (p *Pipeline) Correct(ctx context.Context, actor string, req CorrectionRequest) (*store.Item, string, error) {
	req.Identity = normalize.CleanIdentity(req.Identity)
	req.FollowersRaw = strings.TrimSpace(req.FollowersRaw)
	if req.Empty() {
		return nil, "", services.Wrap(services.ErrValidation, "correction", "apply", "nothing to change", nil)
	}

	canonical := ""
	if req.FollowersRaw != "" {
		canonical = normalize.NormalizeFollowers(req.FollowersRaw)
		if canonical == "" {
			return nil, "", services.Wrap(services.ErrValidation, "correction", "apply",
				fmt.Sprintf("followers value %q is not a number", req.FollowersRaw), nil)
		}
	}

	session, item, err := p.latest(ctx, actor)
	if err != nil {
		return nil, "", err
	}
	ctx = services.WithItemID(services.WithSessionID(services.WithActor(ctx, actor), session.ID), item.ID)
	logger := logging.WithContext(ctx, p.logger)

	order, err := p.store.GetOrder(ctx, actor)
	if err != nil {
		return nil, "", fmt.Errorf("load order: %w", err)
	}

	rematched := false
	if req.Identity != "" && req.Identity != item.Identity {
		item.Identity = req.Identity
		item.OrderIndex = p.match(item.Identity, order).OrderIndex()
		rematched = true
	}
	if req.FollowersRaw != "" {
		item.FollowersRaw = req.FollowersRaw
		item.FollowersCanonical = canonical
	}
	item.Corrected = true
	if item.Identity != "" && item.FollowersCanonical != "" {
		item.Failure = ""
		item.Outcome = string(OutcomeDetected)
		if item.OrderIndex == 0 && len(order) > 0 {
			item.Outcome = string(OutcomeUnmatched)
		}
	}

	if err := p.store.UpdateItem(ctx, item); err != nil {
		return nil, "", fmt.Errorf("apply correction: %w", err)
	}
	logger.Info("item corrected",
		logging.String(logging.FieldEventType, "item_corrected"),
		logging.String("identity", item.Identity),
		logging.String("followers", item.FollowersCanonical),
		logging.Int("order_index", item.OrderIndex),
		logging.Bool("rematched", rematched),
	)
	return item, correctedMessage(item.Identity, item.FollowersCanonical), nil
}

// Undo deletes the latest item of the actor's open session and returns it.
func (p *Pipeline) Undo(ctx context.Context, actor string) (*store.Item, error) {
	session, item, err := p.latest(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := p.store.DeleteItem(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	ctx = services.WithItemID(services.WithSessionID(services.WithActor(ctx, actor), session.ID), item.ID)
	logging.WithContext(ctx, p.logger).Info("item removed",
		logging.String(logging.FieldEventType, "item_undone"),
		logging.String("image_ref", item.ImageRef),
	)
	return item, nil
}

func (p *Pipeline) latest(ctx context.Context, actor string) (*store.Session, *store.Item, error) {
	session, err := p.store.OpenSession(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	item, err := p.store.LatestItem(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "correction", "latest", "the open session has no items", nil)
	}
	return session, item, nil
}
