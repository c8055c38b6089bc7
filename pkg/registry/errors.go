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
	"errors"
	"fmt"
)

// ErrInvalidTrack is the base error for upserts rejected by validation.
var ErrInvalidTrack = errors.New("invalid track")

var (
	ErrEmptyUID      = fmt.Errorf("%w: empty uid", ErrInvalidTrack)
	ErrLatOutOfRange = fmt.Errorf("%w: latitude out of range [-90,90]", ErrInvalidTrack)
	ErrLonOutOfRange = fmt.Errorf("%w: longitude out of range [-180,180]", ErrInvalidTrack)
)
