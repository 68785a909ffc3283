package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeplay/internal/keyrotation"
	"codeplay/internal/logging"
	"codeplay/internal/metrics"

	"go.uber.org/zap"
)

// CredentialSource is the rotator view the generator needs
type CredentialSource interface {
	Current(ctx context.Context) (keyrotation.Credential, error)
	Advance(ctx context.Context, currentIndex int) (keyrotation.Credential, error)
}

// RetryPolicy bounds primary attempts. After a quota answer the credential
// rotates and, when BaseDelay is set, the session sleeps BaseDelay times the
// attempt number before trying again.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

var (
	// DefaultRetry rotates once on quota exhaustion and retries immediately
	DefaultRetry = RetryPolicy{MaxAttempts: 2}
	// ReviewRetry backs off between up to three attempts
	ReviewRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 1500 * time.Millisecond}
)

// EventKind classifies something notable that happened during a generation
type EventKind string

const (
	EventRotated  EventKind = "rotated"
	EventRetry    EventKind = "retry"
	EventFallback EventKind = "fallback"
)

// Event is reported to a session's observer as it happens
type Event struct {
	Kind            EventKind
	Attempt         int
	CredentialIndex int
	Delay           time.Duration
}

// Result is the cleaned text plus what it took to get it
type Result struct {
	Text         string
	UsedFallback bool
	Rotations    int
	Attempts     int
}

// Generator combines the primary provider, its credential pool and the
// fallback provider.
type Generator struct {
	primary  KeyedCompleter
	creds    CredentialSource
	fallback Completer
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zap.Logger
}

// GeneratorOption customizes a Generator
type GeneratorOption func(*Generator)

// WithSleep replaces the backoff sleep. Tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) GeneratorOption {
	return func(g *Generator) { g.sleep = fn }
}

// NewGenerator wires the providers. fallback may be nil.
func NewGenerator(primary KeyedCompleter, creds CredentialSource, fallback Completer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		primary:  primary,
		creds:    creds,
		fallback: fallback,
		sleep:    sleepCtx,
		log:      logging.L().With(zap.String("component", "generator")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session carries the credential in use across the calls of one build run
type Session struct {
	g      *Generator
	mu     sync.Mutex
	cred   keyrotation.Credential
	loaded bool
	notify func(Event)
}

// NewSession starts a session. observe may be nil.
func (g *Generator) NewSession(observe func(Event)) *Session {
	if observe == nil {
		observe = func(Event) {}
	}
	return &Session{g: g, notify: observe}
}

// Credential returns the index currently selected, 0 before the first call
func (s *Session) Credential() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Index
}

func (s *Session) credential(ctx context.Context) (keyrotation.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		c, err := s.g.creds.Current(ctx)
		if err != nil {
			return keyrotation.Credential{}, err
		}
		s.cred, s.loaded = c, true
	}
	return s.cred, nil
}

func (s *Session) rotate(ctx context.Context, from int) (keyrotation.Credential, error) {
	next, err := s.g.creds.Advance(ctx, from)
	if err != nil {
		return keyrotation.Credential{}, err
	}
	s.mu.Lock()
	s.cred, s.loaded = next, true
	s.mu.Unlock()
	return next, nil
}

// Generate runs req against the primary provider under policy and, when the
// primary path fails for any reason, makes exactly one fallback call.
func (s *Session) Generate(ctx context.Context, req CompletionRequest, policy RetryPolicy) (Result, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var res Result
	text, primaryErr := s.tryPrimary(ctx, req, policy, &res)
	if primaryErr == nil {
		res.Text = StripCodeFences(text)
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	s.g.log.Warn("primary provider failed, trying fallback",
		zap.Int("attempts", res.Attempts), zap.Error(primaryErr))
	if s.g.fallback == nil {
		return res, fmt.Errorf("primary provider failed: %w", primaryErr)
	}

	text, err := s.g.fallback.Complete(ctx, req)
	if err != nil {
		metrics.Get().FallbacksTotal.WithLabelValues("error").Inc()
		return res, errors.Join(primaryErr, err)
	}
	metrics.Get().FallbacksTotal.WithLabelValues("ok").Inc()
	res.Text = StripCodeFences(text)
	res.UsedFallback = true
	s.notify(Event{Kind: EventFallback, Attempt: res.Attempts})
	return res, nil
}

func (s *Session) tryPrimary(ctx context.Context, req CompletionRequest, policy RetryPolicy, res *Result) (string, error) {
	cred, err := s.credential(ctx)
	if err != nil {
		return "", err
	}

	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		if attempt > 1 {
			s.notify(Event{Kind: EventRetry, Attempt: attempt, CredentialIndex: cred.Index})
		}

		text, err := s.g.primary.CompleteWithKey(ctx, cred.Secret, req)
		if err == nil {
			return text, nil
		}
		if !IsQuotaExhausted(err) || attempt >= policy.MaxAttempts {
			return "", err
		}

		from := cred.Index
		cred, err = s.rotate(ctx, from)
		if err != nil {
			return "", err
		}
		res.Rotations++
		delay := policy.BaseDelay * time.Duration(attempt)
		s.g.log.Info("quota exhausted, rotated credential",
			zap.Int("from", from), zap.Int("to", cred.Index), zap.Duration("backoff", delay))
		s.notify(Event{Kind: EventRotated, Attempt: attempt, CredentialIndex: cred.Index, Delay: delay})

		if delay > 0 {
			if err := s.g.sleep(ctx, delay); err != nil {
				return "", err
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
