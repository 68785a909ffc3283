// Package keyrotation maintains a persisted round-robin position over a pool
// of provider credentials.
//
// The stored index is read and then conditionally written without a lock.
// Concurrent callers may both rotate, which skips a credential but never
// yields one that is not configured.
package keyrotation

import (
	"context"
	"errors"
	"time"

	"codeplay/internal/logging"
	"codeplay/internal/metrics"
	"codeplay/pkg/models"

	"go.uber.org/zap"
)

var ErrEmptyPool = errors.New("credential pool is empty")

// Rotation reasons reported to metrics and logs
const (
	ReasonInterval   = "interval"
	ReasonExhaustion = "quota"
)

// Credential is one pool entry with its 1-based index
type Credential struct {
	Index  int
	Secret string
}

// StateStore persists the rotation row for a service
type StateStore interface {
	Get(ctx context.Context, service string) (*models.KeyRotation, error)
	Update(ctx context.Context, service string, index int, rotatedAt time.Time) error
}

// Rotator hands out credentials for one service
type Rotator struct {
	service  string
	pool     []string
	store    StateStore
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// Option customizes a Rotator
type Option func(*Rotator)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Rotator) { r.now = now }
}

// WithInterval overrides the one hour time-based rotation period
func WithInterval(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRotator(service string, pool []string, store StateStore, opts ...Option) *Rotator {
	r := &Rotator{
		service:  service,
		pool:     append([]string(nil), pool...),
		store:    store,
		interval: time.Hour,
		now:      time.Now,
		log:      logging.L().With(zap.String("component", "keyrotation"), zap.String("service", service)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Service returns the service name the rotator manages
func (r *Rotator) Service() string { return r.service }

// Size returns the number of configured credentials
func (r *Rotator) Size() int { return len(r.pool) }

// Current returns the credential at the stored index, first advancing it when
// the interval has elapsed since the last rotation. If the state cannot be
// read it returns index 1 and writes nothing.
func (r *Rotator) Current(ctx context.Context) (Credential, error) {
	if len(r.pool) == 0 {
		return Credential{}, ErrEmptyPool
	}

	state, err := r.store.Get(ctx, r.service)
	if err != nil {
		r.log.Warn("rotation state unavailable, using first credential", zap.Error(err))
		return r.at(1), nil
	}

	now := r.now()
	// an elapsed time of exactly one interval is already due
	if now.Sub(state.LastRotationTime) >= r.interval {
		next := r.next(state.CurrentKeyIndex)
		r.persist(ctx, next, now, ReasonInterval)
		return next, nil
	}
	return r.at(state.CurrentKeyIndex), nil
}

// Advance moves past currentIndex unconditionally. Called after the provider
// reports the credential's quota is exhausted.
func (r *Rotator) Advance(ctx context.Context, currentIndex int) (Credential, error) {
	if len(r.pool) == 0 {
		return Credential{}, ErrEmptyPool
	}
	next := r.next(currentIndex)
	r.persist(ctx, next, r.now(), ReasonExhaustion)
	return next, nil
}

// next wraps to index 1 once the pool is exhausted
func (r *Rotator) next(index int) Credential {
	if index < 1 || index >= len(r.pool) {
		return r.at(1)
	}
	return r.at(index + 1)
}

// at resolves an index, treating anything outside the pool as 1
func (r *Rotator) at(index int) Credential {
	if index < 1 || index > len(r.pool) {
		index = 1
	}
	return Credential{Index: index, Secret: r.pool[index-1]}
}

func (r *Rotator) persist(ctx context.Context, c Credential, at time.Time, reason string) {
	metrics.Get().RecordRotation(r.service, reason)
	if err := r.store.Update(ctx, r.service, c.Index, at); err != nil {
		r.log.Warn("failed to persist rotation", zap.Int("index", c.Index), zap.Error(err))
		return
	}
	r.log.Info("rotated credential", zap.Int("index", c.Index), zap.String("reason", reason))
}
