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

import "time"

// BridgeState is the connection state of the TAK bridge.
type BridgeState string

const (
	BridgeDisabled   BridgeState = "disabled"
	BridgeConnecting BridgeState = "connecting"
	BridgeConnected  BridgeState = "connected"
	BridgeBackoff    BridgeState = "backoff"
)

// BridgeStatus is the read-only health snapshot the bridge exposes to
// external consumers. It is a projection; mutating it has no effect on
// the bridge itself.
type BridgeStatus struct {
	State           BridgeState `json:"state"`
	Peer            string      `json:"peer,omitempty"`
	TLS             bool        `json:"tls"`
	Callsign        string      `json:"callsign,omitempty"`
	LastError       string      `json:"last_error,omitempty"`
	LastConnectedAt time.Time   `json:"last_connected_at,omitzero"`
	LastPushAt      time.Time   `json:"last_push_at,omitzero"`
	ReconnectCount  int64       `json:"reconnect_count"`
	EventsReceived  int64       `json:"events_received"`
	EventsSent      int64       `json:"events_sent"`
}
