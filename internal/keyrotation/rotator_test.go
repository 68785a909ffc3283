package keyrotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeplay/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	row     *models.KeyRotation
	getErr  error
	updates []int
}

func (m *memStore) Get(_ context.Context, service string) (*models.KeyRotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.row == nil {
		return nil, errors.New("not found")
	}
	cp := *m.row
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, service string, index int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.row = &models.KeyRotation{ServiceName: service, CurrentKeyIndex: index, LastRotationTime: at}
	m.updates = append(m.updates, index)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

var pool = []string{"key-1", "key-2", "key-3"}

func TestAdvanceWrapsAroundPool(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := &memStore{}
	r := NewRotator("gemini", pool, store, WithClock(clock.Now))
	ctx := context.Background()

	seen := make([]string, 0, len(pool)+1)
	idx := 1
	for i := 0; i < len(pool); i++ {
		c, err := r.Advance(ctx, idx)
		require.NoError(t, err)
		seen = append(seen, c.Secret)
		idx = c.Index
	}
	assert.ElementsMatch(t, pool, seen, "each credential exactly once")
	assert.Equal(t, 1, idx, "cycle ends back on index 1")
	assert.Equal(t, []int{2, 3, 1}, store.updates)
}

func TestCurrentWithinInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &memStore{row: &models.KeyRotation{CurrentKeyIndex: 2, LastRotationTime: now.Add(-59 * time.Minute)}}
	r := NewRotator("gemini", pool, store, WithClock(func() time.Time { return now }))

	c, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Index: 2, Secret: "key-2"}, c)
	assert.Empty(t, store.updates)
}

func TestCurrentRotatesAtExactInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &memStore{row: &models.KeyRotation{CurrentKeyIndex: 2, LastRotationTime: now.Add(-time.Hour)}}
	r := NewRotator("gemini", pool, store, WithClock(func() time.Time { return now }), WithInterval(time.Hour))

	c, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Index: 3, Secret: "key-3"}, c)
	assert.Equal(t, []int{3}, store.updates)
}

func TestCurrentRotatesAfterInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		index     int
		wantIndex int
	}{
		{"advances", 1, 2},
		{"wraps from last", 3, 1},
		{"out of range index wraps", 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{row: &models.KeyRotation{CurrentKeyIndex: tt.index, LastRotationTime: now.Add(-time.Hour)}}
			r := NewRotator("gemini", pool, store, WithClock(func() time.Time { return now }))

			c, err := r.Current(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, c.Index)
			require.NotNil(t, store.row)
			assert.Equal(t, tt.wantIndex, store.row.CurrentKeyIndex)
			assert.True(t, store.row.LastRotationTime.Equal(now))
		})
	}
}

func TestCurrentFailsOpen(t *testing.T) {
	store := &memStore{getErr: errors.New("connection refused")}
	r := NewRotator("gemini", pool, store)

	c, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Index: 1, Secret: "key-1"}, c)
	assert.Empty(t, store.updates, "fail-open path never writes")
}

func TestSingleKeyPool(t *testing.T) {
	store := &memStore{}
	r := NewRotator("gemini", []string{"only"}, store)

	for i := 0; i < 3; i++ {
		c, err := r.Advance(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Index)
	}
}

func TestEmptyPool(t *testing.T) {
	r := NewRotator("gemini", nil, &memStore{})
	_, err := r.Current(context.Background())
	assert.ErrorIs(t, err, ErrEmptyPool)
	_, err = r.Advance(context.Background(), 1)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSweeperRunRotatesStaleState(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &memStore{row: &models.KeyRotation{CurrentKeyIndex: 1, LastRotationTime: now.Add(-2 * time.Hour)}}
	r := NewRotator("gemini", pool, store, WithClock(func() time.Time { return now }))

	s, err := NewSweeper(r, "@every 15m")
	require.NoError(t, err)
	s.Run()
	assert.Equal(t, []int{2}, store.updates)

	_, err = NewSweeper(r, "not a schedule")
	assert.Error(t, err)
}
