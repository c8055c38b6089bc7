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

import "errors"

var (
	ErrNoHost             = errors.New("no TAK host configured")
	ErrTLSKeyPairRequired = errors.New("TLS client cert and key must be configured together")
	ErrAlreadyStarted     = errors.New("bridge already started")

	ErrConnectFailed   = errors.New("TAK connect failed")
	ErrHandshakeFailed = errors.New("TAK TLS handshake failed")
	ErrConnectionLost  = errors.New("TAK connection lost")
)
