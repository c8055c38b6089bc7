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

// Package logger provides JSON structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log level and destination.
type Config struct {
	Level  string `json:"level"`
	Debug  bool   `json:"debug"`
	Output string `json:"output"`
}

// Logger is the logging interface handed to components.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
}

type zeroLogger struct {
	l zerolog.Logger
}

// New creates a Logger from the given config.
func New(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = os.Stdout

	if config.Output == "stderr" {
		output = os.Stderr
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	l := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &zeroLogger{l: l}, nil
}

func (z *zeroLogger) Debug() *zerolog.Event { return z.l.Debug() }
func (z *zeroLogger) Info() *zerolog.Event  { return z.l.Info() }
func (z *zeroLogger) Warn() *zerolog.Event  { return z.l.Warn() }
func (z *zeroLogger) Error() *zerolog.Event { return z.l.Error() }
func (z *zeroLogger) Fatal() *zerolog.Event { return z.l.Fatal() }
func (z *zeroLogger) With() zerolog.Context { return z.l.With() }

func (z *zeroLogger) WithComponent(component string) Logger {
	return &zeroLogger{l: z.l.With().Str("component", component).Logger()}
}

// NewTestLogger creates a no-op logger for testing that discards all output.
func NewTestLogger() Logger {
	return &zeroLogger{l: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}
