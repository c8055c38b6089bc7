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

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStaleBoundary(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name  string
		age   time.Duration
		stale bool
	}{
		{"fresh", 10 * time.Second, false},
		{"just under threshold", 89 * time.Second, false},
		{"exactly at threshold", 90 * time.Second, false},
		{"just over threshold", 91 * time.Second, true},
		{"long stale", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{UID: "T-1", UpdatedAt: now.Add(-tt.age)}
			assert.Equal(t, tt.stale, trk.IsStale(now))
		})
	}
}

func TestParseSide(t *testing.T) {
	assert.Equal(t, SideFriendly, ParseSide("friendly"))
	assert.Equal(t, SideEnemy, ParseSide("enemy"))
	assert.Equal(t, SideNeutral, ParseSide("neutral"))
	assert.Equal(t, SideUnknown, ParseSide("unknown"))
	assert.Equal(t, SideUnknown, ParseSide(""))
	assert.Equal(t, SideUnknown, ParseSide("martian"))
}

func TestParseLayer(t *testing.T) {
	assert.Equal(t, LayerFires, ParseLayer("fires"))
	assert.Equal(t, LayerAir, ParseLayer("air"))
	assert.Equal(t, LayerEW, ParseLayer("ew"))
	assert.Equal(t, LayerOther, ParseLayer(""))
	assert.Equal(t, LayerOther, ParseLayer("submarine"))
}

func TestSideFromStringStrict(t *testing.T) {
	side, ok := SideFromString("friendly")
	require.True(t, ok)
	assert.Equal(t, SideFriendly, side)

	_, ok = SideFromString("martian")
	assert.False(t, ok)

	_, ok = SideFromString("")
	assert.False(t, ok)
}

func TestCallsignFallsBackToUID(t *testing.T) {
	trk := &Track{UID: "FRD-1"}
	assert.Equal(t, "FRD-1", trk.Callsign())

	trk.Meta = map[string]string{"callsign": "ALPHA 1"}
	assert.Equal(t, "ALPHA 1", trk.Callsign())
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Track{
		UID:  "FRD-1",
		Side: SideFriendly,
		Meta: map[string]string{"callsign": "ALPHA 1"},
	}

	clone := orig.Clone()
	clone.Meta["callsign"] = "BRAVO 2"
	clone.Side = SideEnemy

	assert.Equal(t, "ALPHA 1", orig.Meta["callsign"])
	assert.Equal(t, SideFriendly, orig.Side)
}
