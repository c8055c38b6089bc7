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

// Package bridge maintains a resilient bidirectional TCP/TLS connection to a
// TAK server. Inbound CoT events are decoded and upserted into the track
// registry; local tracks are pushed back out on a fixed cadence. The bridge
// owns its socket exclusively and survives any network failure by backing
// off and reconnecting.
package bridge

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/tacops/coplite/pkg/cot"
	"github.com/tacops/coplite/pkg/logger"
	"github.com/tacops/coplite/pkg/models"
)

const (
	defaultPort           = 8087
	defaultCallsign       = "COP-LITE"
	defaultPushInterval   = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second

	writeTimeout   = 10 * time.Second
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second

	// staleMargin pads the validity window of pushed events past the next
	// scheduled push.
	staleMargin = 15 * time.Second

	// sourceTAKServer tags inbound tracks so the push loop never echoes
	// them back to the server they came from.
	sourceTAKServer = "tak_server"
)

// Config holds the bridge connection settings.
type Config struct {
	Host           string
	Port           int
	TLS            bool
	CertFile       string
	KeyFile        string
	CAFile         string
	Callsign       string
	PushInterval   time.Duration
	ConnectTimeout time.Duration
}

// Registry is the bridge's view of the track store.
type Registry interface {
	Upsert(ctx context.Context, t *models.Track) (*models.Track, error)
	List() []*models.Track
}

// Bridge is the TAK network client. Its connection state is owned
// exclusively by the run loop; external consumers read it through Status.
type Bridge struct {
	config     Config
	registry   Registry
	logger     logger.Logger
	instanceID string

	dialFn func(ctx context.Context) (net.Conn, error)

	mu              sync.Mutex
	state           models.BridgeState
	conn            net.Conn
	cancel          context.CancelFunc
	lastError       string
	lastConnectedAt time.Time
	lastPushAt      time.Time
	reconnects      int64
	eventsReceived  int64
	eventsSent      int64

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a bridge. Configuration errors (no host, a lone TLS cert or
// key) are returned here so the caller can leave the bridge disabled and
// report the reason; they never crash the process.
func New(config Config, reg Registry, log logger.Logger) (*Bridge, error) {
	if config.Host == "" {
		return nil, ErrNoHost
	}

	if (config.CertFile == "") != (config.KeyFile == "") {
		return nil, ErrTLSKeyPairRequired
	}

	if config.Port == 0 {
		config.Port = defaultPort
	}

	if config.Callsign == "" {
		config.Callsign = defaultCallsign
	}

	if config.PushInterval <= 0 {
		config.PushInterval = defaultPushInterval
	}

	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}

	b := &Bridge{
		config:     config,
		registry:   reg,
		logger:     log.WithComponent("tak_bridge"),
		instanceID: uuid.NewString(),
		state:      models.BridgeDisabled,
		kick:       make(chan struct{}, 1),
	}

	b.dialFn = b.dial

	if config.TLS {
		// Load certificates up front so a bad path fails construction,
		// not the first connection attempt.
		if _, err := b.tlsConfig(); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Start launches the run loop. It returns immediately; the bridge connects
// in the background.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()

	if b.cancel != nil {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.mu.Unlock()

	b.logger.Info().
		Str("host", b.config.Host).
		Int("port", b.config.Port).
		Bool("tls", b.config.TLS).
		Str("callsign", b.config.Callsign).
		Msg("Starting TAK bridge")

	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer close(b.done)

		b.run(runCtx)
	}()

	return nil
}

// Stop cancels the run loop, interrupts any blocked socket operation, and
// waits for all bridge goroutines to exit. The bridge reports disabled only
// after the socket is released.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	b.closeConn()
	b.wg.Wait()

	b.mu.Lock()
	b.cancel = nil
	b.mu.Unlock()

	b.logger.Info().Msg("TAK bridge stopped")
}

// ForceReconnect drops any live connection and shortcuts a pending backoff
// wait, resetting the delay.
func (b *Bridge) ForceReconnect() {
	select {
	case b.kick <- struct{}{}:
	default:
	}

	b.closeConn()
}

func (b *Bridge) addr() string {
	return net.JoinHostPort(b.config.Host, strconv.Itoa(b.config.Port))
}

// run drives the state machine: connecting -> connected -> backoff ->
// connecting, until the context is canceled.
func (b *Bridge) run(ctx context.Context) {
	bo := newBackOff()

	for {
		if ctx.Err() != nil {
			b.setState(models.BridgeDisabled)
			return
		}

		b.setState(models.BridgeConnecting)

		conn, err := b.dialFn(ctx)
		if err != nil {
			b.recordError(err)

			if !b.waitBackoff(ctx, bo) {
				return
			}

			continue
		}

		bo.Reset()
		b.setConnected(conn)
		b.serve(ctx, conn)
		b.closeConn()

		if ctx.Err() != nil {
			b.setState(models.BridgeDisabled)
			return
		}

		if !b.waitBackoff(ctx, bo) {
			return
		}
	}
}

// waitBackoff sleeps for the next backoff delay. A kick is honored
// immediately and resets the delay. Returns false when the context ended.
func (b *Bridge) waitBackoff(ctx context.Context, bo *backoff.ExponentialBackOff) bool {
	b.mu.Lock()
	b.state = models.BridgeBackoff
	b.reconnects++
	b.mu.Unlock()

	delay := bo.NextBackOff()
	b.logger.Info().Dur("delay", delay).Msg("TAK reconnect scheduled")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		b.setState(models.BridgeDisabled)
		return false
	case <-b.kick:
		bo.Reset()
		return true
	case <-timer.C:
		return true
	}
}

// serve runs the inbound and push duties concurrently over one connection.
// Either duty failing tears down both: the push loop closes the socket to
// unblock a pending read, and a read error cancels the push loop's context.
func (b *Bridge) serve(ctx context.Context, conn net.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		b.pushLoop(connCtx, conn)
		cancel()

		_ = conn.Close()
	}()

	b.readLoop(connCtx, conn)
	cancel()

	_ = conn.Close()
	wg.Wait()
}

// readLoop splits the inbound byte stream into discrete CoT events and
// upserts them. Malformed events are skipped; only socket errors end the
// loop.
func (b *Bridge) readLoop(ctx context.Context, conn net.Conn) {
	sp := cot.NewSplitter(cot.DefaultMaxBuffer)
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)

		if n > 0 {
			events, discarded := sp.Feed(buf[:n])
			if discarded {
				b.logger.Warn().Msg("Inbound buffer exceeded cap, discarding")
			}

			for _, raw := range events {
				b.handleEvent(ctx, raw)
			}
		}

		if err != nil {
			if ctx.Err() == nil {
				b.recordError(fmt.Errorf("%w: %w", ErrConnectionLost, err))
			}

			return
		}
	}
}

func (b *Bridge) handleEvent(ctx context.Context, raw []byte) {
	trk, err := cot.Decode(raw)
	if err != nil {
		b.logger.Debug().Err(err).Msg("Skipping malformed CoT event")
		return
	}

	// Our own presence events come back on the stream.
	if trk.UID == b.config.Callsign {
		return
	}

	if trk.Meta == nil {
		trk.Meta = make(map[string]string)
	}

	trk.Meta["source"] = sourceTAKServer

	if _, err := b.registry.Upsert(ctx, trk); err != nil {
		b.logger.Debug().Err(err).Str("uid", trk.UID).Msg("Rejected inbound track")
		return
	}

	b.mu.Lock()
	b.eventsReceived++
	b.mu.Unlock()
}

// pushLoop pushes the local picture immediately on connect and then on every
// interval tick.
func (b *Bridge) pushLoop(ctx context.Context, conn net.Conn) {
	ticker := time.NewTicker(b.config.PushInterval)
	defer ticker.Stop()

	for {
		if err := b.push(conn); err != nil {
			if ctx.Err() == nil {
				b.recordError(err)
			}

			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// push writes one presence event plus every local track. Tracks that came
// from the TAK server are skipped to prevent an echo loop.
func (b *Bridge) push(conn net.Conn) error {
	now := time.Now().UTC()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	presence, err := cot.EncodePresence(b.config.Callsign, b.instanceID, now)
	if err != nil {
		return err
	}

	if _, err := conn.Write(presence); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}

	staleAfter := b.config.PushInterval + staleMargin
	sent := 0

	for _, t := range b.registry.List() {
		if t.Meta["source"] == sourceTAKServer {
			continue
		}

		data, err := cot.Encode(t, now, staleAfter)
		if err != nil {
			b.logger.Debug().Err(err).Str("uid", t.UID).Msg("Skipping unencodable track")
			continue
		}

		if _, err := conn.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}

		sent++
	}

	b.mu.Lock()
	b.eventsSent += int64(sent)
	b.lastPushAt = time.Now().UTC()
	b.mu.Unlock()

	b.logger.Debug().Int("tracks", sent).Msg("Pushed local tracks")

	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxInterval = maxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0 // delays stay non-decreasing until capped

	return bo
}

func (b *Bridge) setState(state models.BridgeState) {
	b.mu.Lock()
	prev := b.state
	b.state = state
	b.mu.Unlock()

	if prev != state {
		b.logger.Info().Str("from", string(prev)).Str("to", string(state)).Msg("Bridge state changed")
	}
}

func (b *Bridge) setConnected(conn net.Conn) {
	b.mu.Lock()
	b.state = models.BridgeConnected
	b.conn = conn
	b.lastConnectedAt = time.Now().UTC()
	b.lastError = ""
	b.mu.Unlock()

	b.logger.Info().Str("peer", b.addr()).Msg("Connected to TAK server")
}

func (b *Bridge) closeConn() {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (b *Bridge) recordError(err error) {
	b.mu.Lock()
	b.lastError = err.Error()
	b.mu.Unlock()

	b.logger.Warn().Err(err).Msg("TAK bridge error")
}
