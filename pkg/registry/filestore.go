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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tacops/coplite/pkg/models"
)

// FileStore persists the track snapshot as a single JSON file, replaced
// atomically on each save.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileSnapshot struct {
	SavedAt time.Time       `json:"saved_at"`
	Tracks  []*models.Track `json:"tracks"`
}

// LoadAll reads the snapshot file. A missing file yields no tracks.
func (f *FileStore) LoadAll(_ context.Context) ([]*models.Track, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read track snapshot: %w", err)
	}

	var snap fileSnapshot

	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse track snapshot: %w", err)
	}

	return snap.Tracks, nil
}

// SaveAll writes the snapshot to a temp file in the same directory and
// renames it into place, so readers never see a partial file.
func (f *FileStore) SaveAll(_ context.Context, tracks []*models.Track) error {
	snap := fileSnapshot{
		SavedAt: time.Now().UTC(),
		Tracks:  tracks,
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal track snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write snapshot temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}
