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

// Package registry maintains the current track picture. It is the single
// shared mutable resource of the system: the HTTP layer and the TAK bridge
// both read and write through it concurrently.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/tacops/coplite/pkg/logger"
	"github.com/tacops/coplite/pkg/models"
)

// clockSkewTolerance bounds how far a caller-supplied updated_at may differ
// from the local clock before the registry stamps its own time instead.
const clockSkewTolerance = 5 * time.Second

// Registry is a concurrency-safe store of the current tracks. Each upsert is
// atomic with respect to readers: List never observes a half-written record.
type Registry struct {
	mu     sync.RWMutex
	tracks map[string]*models.Track

	// saveMu serializes snapshot writes to the store so a slow save never
	// holds the track lock.
	saveMu sync.Mutex

	store  Store
	clock  func() time.Time
	logger logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore attaches the persistence collaborator. The registry loads all
// tracks from it at startup and snapshots after each accepted upsert.
func WithStore(s Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithClock overrides the time source (test seam).
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// New creates an empty registry.
func New(log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		tracks: make(map[string]*models.Track),
		clock:  time.Now,
		logger: log,
	}

	for _, o := range opts {
		o(r)
	}

	return r
}

// Load replaces the registry contents with the store's snapshot. Called once
// at startup before any writer runs.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	tracks, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tracks {
		if t == nil || t.UID == "" {
			continue
		}

		r.tracks[t.UID] = t.Clone()
	}

	r.logger.Info().Int("tracks", len(r.tracks)).Msg("Loaded track snapshot")

	return nil
}

// Upsert validates and stores a track, replacing any record with the same
// uid. The stored record's UpdatedAt never decreases for a given uid: a
// caller timestamp within the clock-skew tolerance is kept, anything else is
// stamped with the current time, and the result is clamped against the
// previously stored value. Returns a copy of the stored record.
func (r *Registry) Upsert(ctx context.Context, t *models.Track) (*models.Track, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	now := r.clock()

	input := t.Clone()
	input.Side = models.ParseSide(string(input.Side))
	input.Layer = models.ParseLayer(string(input.Layer))
	input.UpdatedAt = stampTime(input.UpdatedAt, now)

	r.mu.Lock()

	if existing, ok := r.tracks[input.UID]; ok && input.UpdatedAt.Before(existing.UpdatedAt) {
		input.UpdatedAt = existing.UpdatedAt
	}

	r.tracks[input.UID] = input
	snapshot := r.snapshotLocked()

	r.mu.Unlock()

	r.save(ctx, snapshot)

	return input.Clone(), nil
}

// Get retrieves a copy of the track with the given uid.
func (r *Registry) Get(uid string) (*models.Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tracks[uid]
	if !ok {
		return nil, false
	}

	return t.Clone(), true
}

// List returns a point-in-time snapshot of all tracks. Order is not
// significant; callers sort for display.
func (r *Registry) List() []*models.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshotLocked()
}

// Count returns the number of live tracks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tracks)
}

func (r *Registry) snapshotLocked() []*models.Track {
	out := make([]*models.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		out = append(out, t.Clone())
	}

	return out
}

func (r *Registry) save(ctx context.Context, snapshot []*models.Track) {
	if r.store == nil {
		return
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if err := r.store.SaveAll(ctx, snapshot); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to persist track snapshot")
	}
}

func validate(t *models.Track) error {
	if t == nil || t.UID == "" {
		return ErrEmptyUID
	}

	if t.Lat < -90 || t.Lat > 90 {
		return ErrLatOutOfRange
	}

	if t.Lon < -180 || t.Lon > 180 {
		return ErrLonOutOfRange
	}

	return nil
}

// stampTime keeps a supplied timestamp only when it is plausibly current.
func stampTime(supplied, now time.Time) time.Time {
	if supplied.IsZero() {
		return now
	}

	if supplied.Before(now.Add(-clockSkewTolerance)) || supplied.After(now.Add(clockSkewTolerance)) {
		return now
	}

	return supplied
}
