package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"igreport/internal/logging"
)

// Budget describes the remote call allowance. Zero or negative values disable
// the corresponding term.
type Budget struct {
	RequestsPerMinute float64
	TokensPerMinute   float64
	TokensPerCall     float64
}

// MinInterval returns the smallest spacing between dispatches the budget allows:
// max(60s/rpm, tokensPerCall/tpm*60s).
func (b Budget) MinInterval() time.Duration {
	var byRequests, byTokens time.Duration
	if b.RequestsPerMinute > 0 {
		byRequests = time.Duration(float64(time.Minute) / b.RequestsPerMinute)
	}
	if b.TokensPerMinute > 0 && b.TokensPerCall > 0 {
		byTokens = time.Duration(b.TokensPerCall / b.TokensPerMinute * float64(time.Minute))
	}
	return max(byRequests, byTokens)
}

// Scheduler gates outbound calls. The zero value is not usable; call New.
type Scheduler struct {
	// dispatch is held for the whole of Await so callers leave in arrival order.
	dispatch sync.Mutex

	mu            sync.Mutex
	minInterval   time.Duration
	lastCallAt    time.Time
	nextAllowedAt time.Time
	// pending counts callers inside Await that have not dispatched yet.
	pending int

	now     func() time.Time
	sleeper func(time.Duration)
	logger  *slog.Logger
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(s *Scheduler) {
		s.sleeper = sleeper
	}
}

// WithLogger attaches a logger for dispatch and backoff events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New constructs a scheduler for the supplied budget.
func New(budget Budget, opts ...Option) *Scheduler {
	s := &Scheduler{
		minInterval: budget.MinInterval(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "ratelimit")
	return s
}

// MinInterval returns the configured spacing between dispatches.
func (s *Scheduler) MinInterval() time.Duration {
	return s.minInterval
}

// Await blocks until the caller may dispatch, then records the dispatch time.
// Callers are released strictly one at a time. The wait is recomputed after
// every sleep so a backoff recorded meanwhile is honoured.
func (s *Scheduler) Await(ctx context.Context) error {
	if ctx == nil {
		return errors.New("ratelimit await: nil context")
	}
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		now := s.now()
		wait := s.waitLocked(now)
		if wait <= 0 {
			s.lastCallAt = now
			s.mu.Unlock()
			s.logger.Debug("remote call dispatched",
				logging.String("dispatched_at", now.UTC().Format(time.RFC3339Nano)),
				logging.String(logging.FieldEventType, "ratelimit_dispatch"),
			)
			return nil
		}
		s.mu.Unlock()

		s.logger.Debug("remote call waiting for budget",
			logging.Duration("wait", wait),
			logging.String(logging.FieldEventType, "ratelimit_wait"),
		)
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// EstimateWait returns how long a caller arriving now would wait, without
// blocking or changing state. Every caller already queued inside Await adds
// one minimum interval.
func (s *Scheduler) EstimateWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.waitLocked(s.now()), 0) + time.Duration(s.pending)*s.minInterval
}

// RecordBackoff pushes the not-before time to now+delay. It never moves the
// not-before time earlier.
func (s *Scheduler) RecordBackoff(delay time.Duration) {
	if delay <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := s.now().Add(delay)
	if candidate.After(s.nextAllowedAt) {
		s.nextAllowedAt = candidate
		s.logger.Info("remote backoff recorded",
			logging.Duration("delay", delay),
			logging.String("next_allowed_at", candidate.UTC().Format(time.RFC3339)),
			logging.String(logging.FieldEventType, "ratelimit_backoff"),
		)
	}
}

// NextAllowedAt returns the current not-before time.
func (s *Scheduler) NextAllowedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAllowedAt
}

// LastCallAt returns the time of the most recent dispatch.
func (s *Scheduler) LastCallAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCallAt
}

func (s *Scheduler) waitLocked(now time.Time) time.Duration {
	var byInterval time.Duration
	if !s.lastCallAt.IsZero() {
		byInterval = s.minInterval - now.Sub(s.lastCallAt)
	}
	byBackoff := s.nextAllowedAt.Sub(now)
	return max(byInterval, byBackoff)
}

func (s *Scheduler) sleep(ctx context.Context, delay time.Duration) error {
	if s.sleeper != nil {
		s.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
