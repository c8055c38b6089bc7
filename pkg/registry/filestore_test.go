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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacops/coplite/pkg/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cop.json")
	store := NewFileStore(path)

	in := []*models.Track{
		{
			UID:       "FRD-1",
			Side:      models.SideFriendly,
			Layer:     models.LayerFriendly,
			Lat:       50.1,
			Lon:       30.2,
			Meta:      map[string]string{"callsign": "ALPHA 1"},
			UpdatedAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		},
		{UID: "ENY-1", Side: models.SideEnemy, Layer: models.LayerFires, Lat: -1.5, Lon: 100},
	}

	require.NoError(t, store.SaveAll(context.Background(), in))

	out, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "FRD-1", out[0].UID)
	assert.Equal(t, models.SideFriendly, out[0].Side)
	assert.Equal(t, "ALPHA 1", out[0].Meta["callsign"])
	assert.Equal(t, in[0].UpdatedAt, out[0].UpdatedAt)
	assert.InDelta(t, -1.5, out[1].Lat, 1e-9)
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	out, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cop.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cop.json")
	store := NewFileStore(path)

	require.NoError(t, store.SaveAll(context.Background(), []*models.Track{{UID: "OLD"}}))
	require.NoError(t, store.SaveAll(context.Background(), []*models.Track{{UID: "NEW"}}))

	out, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NEW", out[0].UID)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
