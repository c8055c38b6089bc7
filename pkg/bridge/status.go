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

package bridge

import "github.com/tacops/coplite/pkg/models"

// Status returns a read-only snapshot of the bridge connection state. The
// mutex is never held across socket I/O, so this cannot block the bridge's
// own loops; a momentarily stale read is acceptable.
func (b *Bridge) Status() models.BridgeStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return models.BridgeStatus{
		State:           b.state,
		Peer:            b.addr(),
		TLS:             b.config.TLS,
		Callsign:        b.config.Callsign,
		LastError:       b.lastError,
		LastConnectedAt: b.lastConnectedAt,
		LastPushAt:      b.lastPushAt,
		ReconnectCount:  b.reconnects,
		EventsReceived:  b.eventsReceived,
		EventsSent:      b.eventsSent,
	}
}

// DisabledBridge is the status provider for a bridge that is not running,
// either unconfigured or rejected at construction. It reports why.
type DisabledBridge struct {
	reason string
}

// Disabled creates a DisabledBridge with the given reason.
func Disabled(reason string) *DisabledBridge {
	return &DisabledBridge{reason: reason}
}

func (d *DisabledBridge) Status() models.BridgeStatus {
	return models.BridgeStatus{
		State:     models.BridgeDisabled,
		LastError: d.reason,
	}
}
