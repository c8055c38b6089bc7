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

// Package config loads the process configuration from environment
// variables. Every option has a sane default; an empty TAK_HOST disables
// the bridge entirely.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tacops/coplite/pkg/bridge"
	"github.com/tacops/coplite/pkg/logger"
)

const (
	defaultListenAddr  = ":8000"
	defaultDBPath      = "cop.json"
	defaultTAKPort     = 8087
	defaultCallsign    = "COP-LITE"
	defaultPushSeconds = 30
	defaultConnTimeout = 10
)

// Config is the full process configuration.
type Config struct {
	ListenAddr string
	DBPath     string
	TAK        bridge.Config
	Logging    *logger.Config
}

// FromEnv reads the recognized environment variables.
func FromEnv() *Config {
	return &Config{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		DBPath:     getEnvOrDefault("COP_DB_PATH", defaultDBPath),
		TAK: bridge.Config{
			Host:           strings.TrimSpace(os.Getenv("TAK_HOST")),
			Port:           getEnvIntOrDefault("TAK_PORT", defaultTAKPort),
			TLS:            getEnvBoolOrDefault("TAK_TLS", false),
			CertFile:       os.Getenv("TAK_CERT"),
			KeyFile:        os.Getenv("TAK_KEY"),
			CAFile:         os.Getenv("TAK_CA"),
			Callsign:       getEnvOrDefault("TAK_CALLSIGN", defaultCallsign),
			PushInterval:   getEnvSecondsOrDefault("TAK_PUSH_INTERVAL", defaultPushSeconds),
			ConnectTimeout: getEnvSecondsOrDefault("TAK_CONNECT_TIMEOUT", defaultConnTimeout),
		},
		Logging: logger.DefaultConfig(),
	}
}

// BridgeEnabled reports whether a TAK host is configured.
func (c *Config) BridgeEnabled() bool {
	return c.TAK.Host != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(value)

	return value == "true" || value == "1" || value == "yes" || value == "on"
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return i
}

func getEnvSecondsOrDefault(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvIntOrDefault(key, defaultSeconds)) * time.Second
}
