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

package cot

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is the base error for structurally invalid wire data.
// Every decode failure wraps it, so callers can classify with errors.Is.
var ErrMalformedEvent = errors.New("malformed CoT event")

var (
	ErrMissingUID     = fmt.Errorf("%w: missing uid attribute", ErrMalformedEvent)
	ErrMissingType    = fmt.Errorf("%w: missing type attribute", ErrMalformedEvent)
	ErrMissingPoint   = fmt.Errorf("%w: missing point element", ErrMalformedEvent)
	ErrBadCoordinates = fmt.Errorf("%w: point coordinates not parseable", ErrMalformedEvent)

	ErrNilTrack      = errors.New("cannot encode nil track")
	ErrEmptyCallsign = errors.New("presence event requires a callsign")
)
