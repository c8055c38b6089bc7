/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacops/coplite/pkg/logger"
	"github.com/tacops/coplite/pkg/models"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	return New(logger.NewTestLogger(), opts...)
}

func TestUpsertAndGet(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, WithClock(func() time.Time { return now }))

	stored, err := reg.Upsert(context.Background(), &models.Track{
		UID:   "FRD-1",
		Side:  models.SideFriendly,
		Layer: models.LayerFriendly,
		Lat:   50.1,
		Lon:   30.2,
		Meta:  map[string]string{"callsign": "ALPHA 1"},
	})
	require.NoError(t, err)
	assert.Equal(t, now, stored.UpdatedAt)

	got, ok := reg.Get("FRD-1")
	require.True(t, ok)
	assert.Equal(t, "FRD-1", got.UID)
	assert.Equal(t, models.SideFriendly, got.Side)
	assert.Equal(t, models.LayerFriendly, got.Layer)
	assert.InDelta(t, 50.1, got.Lat, 1e-9)
	assert.InDelta(t, 30.2, got.Lon, 1e-9)
	assert.Equal(t, "ALPHA 1", got.Meta["callsign"])
	assert.Equal(t, now, got.UpdatedAt)
}

func TestUpsertReplacesByUID(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(t, WithClock(clock.Now))

	_, err := reg.Upsert(context.Background(), &models.Track{UID: "ENY-1", Side: models.SideEnemy, Lat: 1, Lon: 1})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)

	stored, err := reg.Upsert(context.Background(), &models.Track{UID: "ENY-1", Side: models.SideEnemy, Lat: 2, Lon: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Count())
	assert.InDelta(t, 2.0, stored.Lat, 1e-9)
	assert.Equal(t, clock.Now(), stored.UpdatedAt)
}

func TestUpsertNormalizesEnums(t *testing.T) {
	reg := newTestRegistry(t)

	stored, err := reg.Upsert(context.Background(), &models.Track{
		UID:   "T-1",
		Side:  models.Side("martian"),
		Layer: models.Layer("submarine"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SideUnknown, stored.Side)
	assert.Equal(t, models.LayerOther, stored.Layer)
}

func TestUpsertValidation(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		name  string
		track *models.Track
		want  error
	}{
		{"nil track", nil, ErrEmptyUID},
		{"empty uid", &models.Track{}, ErrEmptyUID},
		{"lat too high", &models.Track{UID: "T-1", Lat: 90.5}, ErrLatOutOfRange},
		{"lat too low", &models.Track{UID: "T-1", Lat: -91}, ErrLatOutOfRange},
		{"lon too high", &models.Track{UID: "T-1", Lon: 180.5}, ErrLonOutOfRange},
		{"lon too low", &models.Track{UID: "T-1", Lon: -181}, ErrLonOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Upsert(context.Background(), tt.track)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidTrack)
		})
	}

	assert.Zero(t, reg.Count())
}

func TestUpsertKeepsPlausibleTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, WithClock(func() time.Time { return now }))

	supplied := now.Add(-3 * time.Second)

	stored, err := reg.Upsert(context.Background(), &models.Track{UID: "T-1", UpdatedAt: supplied})
	require.NoError(t, err)
	assert.Equal(t, supplied, stored.UpdatedAt)
}

func TestUpsertRestampsImplausibleTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, WithClock(func() time.Time { return now }))

	tests := []struct {
		name     string
		supplied time.Time
	}{
		{"far past", now.Add(-time.Hour)},
		{"far future", now.Add(time.Hour)},
		{"just past tolerance", now.Add(-6 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := reg.Upsert(context.Background(), &models.Track{UID: "T-" + tt.name, UpdatedAt: tt.supplied})
			require.NoError(t, err)
			assert.Equal(t, now, stored.UpdatedAt)
		})
	}
}

func TestUpsertUpdatedAtNeverDecreases(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(t, WithClock(clock.Now))

	first := clock.Now()

	_, err := reg.Upsert(context.Background(), &models.Track{UID: "T-1", UpdatedAt: first})
	require.NoError(t, err)

	// A later report carrying an older (still plausible) timestamp wins on
	// fields, but the stored UpdatedAt stays monotonic.
	stored, err := reg.Upsert(context.Background(), &models.Track{
		UID:       "T-1",
		Lat:       7,
		UpdatedAt: first.Add(-3 * time.Second),
	})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, stored.Lat, 1e-9)
	assert.Equal(t, first, stored.UpdatedAt)
}

func TestStalenessTransition(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(t, WithClock(clock.Now))

	stored, err := reg.Upsert(context.Background(), &models.Track{UID: "T-1"})
	require.NoError(t, err)

	assert.False(t, stored.IsStale(clock.Now()))

	clock.Advance(models.StaleThreshold)
	got, _ := reg.Get("T-1")
	assert.False(t, got.IsStale(clock.Now()))

	clock.Advance(time.Second)
	got, _ = reg.Get("T-1")
	assert.True(t, got.IsStale(clock.Now()))

	// A fresh report resurrects the track.
	_, err = reg.Upsert(context.Background(), &models.Track{UID: "T-1"})
	require.NoError(t, err)

	got, _ = reg.Get("T-1")
	assert.False(t, got.IsStale(clock.Now()))
}

func TestListReturnsCopies(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Upsert(context.Background(), &models.Track{
		UID:  "T-1",
		Meta: map[string]string{"callsign": "ALPHA"},
	})
	require.NoError(t, err)

	list := reg.List()
	require.Len(t, list, 1)

	list[0].Meta["callsign"] = "MUTATED"
	list[0].Lat = 99

	got, _ := reg.Get("T-1")
	assert.Equal(t, "ALPHA", got.Meta["callsign"])
	assert.Zero(t, got.Lat)
}

func TestUpsertDoesNotAliasCaller(t *testing.T) {
	reg := newTestRegistry(t)

	in := &models.Track{UID: "T-1", Meta: map[string]string{"callsign": "ALPHA"}}

	_, err := reg.Upsert(context.Background(), in)
	require.NoError(t, err)

	in.Meta["callsign"] = "MUTATED"

	got, _ := reg.Get("T-1")
	assert.Equal(t, "ALPHA", got.Meta["callsign"])
}

func TestConcurrentUpserts(t *testing.T) {
	reg := newTestRegistry(t)

	const n = 100

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := reg.Upsert(context.Background(), &models.Track{
				UID: fmt.Sprintf("T-%03d", i),
				Lat: float64(i) / 10,
			})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, n, reg.Count())

	seen := make(map[string]bool, n)
	for _, trk := range reg.List() {
		seen[trk.UID] = true
	}

	assert.Len(t, seen, n)
}

func TestLoadReplacesContents(t *testing.T) {
	store := &memStore{tracks: []*models.Track{
		{UID: "SAVED-1", Side: models.SideFriendly},
		{UID: "SAVED-2", Side: models.SideEnemy},
		nil,
		{UID: ""},
	}}

	reg := newTestRegistry(t, WithStore(store))

	require.NoError(t, reg.Load(context.Background()))
	assert.Equal(t, 2, reg.Count())

	_, ok := reg.Get("SAVED-1")
	assert.True(t, ok)
}

func TestUpsertSnapshotsToStore(t *testing.T) {
	store := &memStore{}
	reg := newTestRegistry(t, WithStore(store))

	_, err := reg.Upsert(context.Background(), &models.Track{UID: "T-1"})
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()

	require.Len(t, store.saved, 1)
	assert.Equal(t, "T-1", store.saved[0].UID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type memStore struct {
	mu     sync.Mutex
	tracks []*models.Track
	saved  []*models.Track
}

func (m *memStore) LoadAll(_ context.Context) ([]*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tracks, nil
}

func (m *memStore) SaveAll(_ context.Context, tracks []*models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saved = tracks

	return nil
}
