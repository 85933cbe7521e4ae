// Copyright 2020 Booking.com
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
)

var (
	// ErrInterrupt is returned when interrupt signal is caught
	ErrInterrupt = fmt.Errorf("interrupt")
)

type (
	// Sink is an optional destination of the report figures, flushed once
	// the report has been printed
	Sink interface {
		Flush() error
	}
)

// WithInterrupt returns a context cancelled on os.Interrupt. The returned
// function releases the signal handler and must be called.
func WithInterrupt(ctx context.Context, logger zerolog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
			logger.Warn().Err(ErrInterrupt).Msg("stopping")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(interrupt)
		cancel()
	}
}

// FlushSinks flushes every sink, nil sinks are skipped. All sinks are
// flushed even when one fails, the first error is returned.
func FlushSinks(logger zerolog.Logger, sinks ...Sink) error {
	var first error
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.Flush(); err != nil {
			logger.Error().Err(err).Msgf("%T flush failed", sink)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
