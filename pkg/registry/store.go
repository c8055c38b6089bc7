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

	"github.com/tacops/coplite/pkg/models"
)

// Store is the opaque persistence collaborator. The registry's contents are
// the only state that survives a restart; how the store keeps them is its
// own business.
type Store interface {
	// LoadAll returns every persisted track. A missing backing file is not
	// an error; it yields an empty slice.
	LoadAll(ctx context.Context) ([]*models.Track, error)

	// SaveAll replaces the persisted snapshot with the given tracks.
	SaveAll(ctx context.Context, tracks []*models.Track) error
}
