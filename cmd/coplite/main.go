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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tacops/coplite/pkg/api"
	"github.com/tacops/coplite/pkg/bridge"
	"github.com/tacops/coplite/pkg/config"
	"github.com/tacops/coplite/pkg/logger"
	"github.com/tacops/coplite/pkg/registry"
	"github.com/tacops/coplite/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg := config.FromEnv()

	mainLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mainLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting COP-Lite")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := registry.NewFileStore(cfg.DBPath)

	reg := registry.New(mainLogger.WithComponent("registry"), registry.WithStore(store))
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("failed to load track snapshot: %w", err)
	}

	apiOpts := []func(*api.Server){}

	var takBridge *bridge.Bridge

	if cfg.BridgeEnabled() {
		takBridge, err = bridge.New(cfg.TAK, reg, mainLogger)
		if err != nil {
			// A misconfigured bridge disables itself; the registry and
			// HTTP layer keep serving.
			mainLogger.Error().Err(err).Msg("TAK bridge disabled by configuration error")
			apiOpts = append(apiOpts, api.WithBridge(bridge.Disabled(err.Error())))
		} else {
			apiOpts = append(apiOpts, api.WithBridge(takBridge))
		}
	}

	server := api.NewServer(reg, mainLogger, apiOpts...)

	if takBridge != nil {
		if err := takBridge.Start(ctx); err != nil {
			return fmt.Errorf("failed to start TAK bridge: %w", err)
		}
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(cfg.ListenAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			if takBridge != nil {
				takBridge.Stop()
			}

			return fmt.Errorf("API server failed: %w", err)
		}
	}

	mainLogger.Info().Msg("Shutting down")

	if takBridge != nil {
		takBridge.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}

	return nil
}
