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

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
)

// dial opens the TCP connection, wrapping it in TLS when configured. Connect
// and handshake share one deadline so a dead peer cannot wedge the
// connecting state.
func (b *Bridge) dial(ctx context.Context) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, b.config.ConnectTimeout)
	defer cancel()

	var d net.Dialer

	raw, err := d.DialContext(dialCtx, "tcp", b.addr())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	if !b.config.TLS {
		return raw, nil
	}

	tlsConf, err := b.tlsConfig()
	if err != nil {
		_ = raw.Close()
		return nil, err
	}

	conn := tls.Client(raw, tlsConf)

	if err := conn.HandshakeContext(dialCtx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	return conn, nil
}

// tlsConfig builds the client TLS configuration: the configured client
// cert/key pair for mutual TLS, and the configured CA for server
// validation. With no CA the server certificate is not verified, matching
// self-signed TAK server deployments.
func (b *Bridge) tlsConfig() (*tls.Config, error) {
	conf := &tls.Config{
		ServerName: b.config.Host,
		MinVersion: tls.VersionTLS12,
	}

	if b.config.CAFile != "" {
		caCert, err := os.ReadFile(b.config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA certificate from %s: %w", b.config.CAFile, ErrHandshakeFailed)
		}

		conf.RootCAs = caPool
	} else {
		conf.InsecureSkipVerify = true
	}

	if b.config.CertFile != "" && b.config.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.config.CertFile, b.config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}

		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}
