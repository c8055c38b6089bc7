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

// Package models defines the shared data types for the COP track picture.
package models

import "time"

// Side is the reported affiliation of a track.
type Side string

const (
	SideFriendly Side = "friendly"
	SideEnemy    Side = "enemy"
	SideNeutral  Side = "neutral"
	SideUnknown  Side = "unknown"
)

// Layer groups tracks for symbol rendering.
type Layer string

const (
	LayerFriendly Layer = "friendly"
	LayerEnemy    Layer = "enemy"
	LayerFires    Layer = "fires"
	LayerAir      Layer = "air"
	LayerEW       Layer = "ew"
	LayerOther    Layer = "other"
)

// StaleThreshold is the age beyond which a track is classified stale.
// Staleness is derived at read time; stale tracks are never deleted.
const StaleThreshold = 90 * time.Second

// ParseSide maps a string to a Side, defaulting to unknown.
func ParseSide(s string) Side {
	switch Side(s) {
	case SideFriendly, SideEnemy, SideNeutral, SideUnknown:
		return Side(s)
	default:
		return SideUnknown
	}
}

// ParseLayer maps a string to a Layer, defaulting to other.
func ParseLayer(s string) Layer {
	switch Layer(s) {
	case LayerFriendly, LayerEnemy, LayerFires, LayerAir, LayerEW, LayerOther:
		return Layer(s)
	default:
		return LayerOther
	}
}

// SideFromString is the strict variant of ParseSide for API input validation.
func SideFromString(s string) (Side, bool) {
	switch Side(s) {
	case SideFriendly, SideEnemy, SideNeutral, SideUnknown:
		return Side(s), true
	default:
		return "", false
	}
}

// LayerFromString is the strict variant of ParseLayer for API input validation.
func LayerFromString(s string) (Layer, bool) {
	switch Layer(s) {
	case LayerFriendly, LayerEnemy, LayerFires, LayerAir, LayerEW, LayerOther:
		return Layer(s), true
	default:
		return "", false
	}
}

// Track is a point-in-time entity report. At most one live Track exists per
// UID; an upsert with an existing UID replaces fields in place.
type Track struct {
	UID       string            `json:"uid"`
	Side      Side              `json:"side"`
	Layer     Layer             `json:"layer"`
	Lat       float64           `json:"lat"`
	Lon       float64           `json:"lon"`
	Meta      map[string]string `json:"meta,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Age returns how long ago the track was last written.
func (t *Track) Age(now time.Time) time.Duration {
	return now.Sub(t.UpdatedAt)
}

// IsStale reports whether the track's age exceeds StaleThreshold.
// The boundary is strict: a track exactly StaleThreshold old is not stale.
func (t *Track) IsStale(now time.Time) bool {
	return t.Age(now) > StaleThreshold
}

// Callsign returns the display callsign, falling back to the UID.
func (t *Track) Callsign() string {
	if cs := t.Meta["callsign"]; cs != "" {
		return cs
	}

	return t.UID
}

// Clone returns a deep copy so registry readers never share mutable state.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}

	out := *t

	if t.Meta != nil {
		out.Meta = make(map[string]string, len(t.Meta))
		for k, v := range t.Meta {
			out.Meta[k] = v
		}
	}

	return &out
}
