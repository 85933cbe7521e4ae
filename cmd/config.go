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
	"fmt"
	"io"
	"log/syslog"
	"os"
	"path"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"github.com/bookingcom/logreport/pkg/drivers"
	"github.com/bookingcom/logreport/pkg/drivers/mysql"
	"github.com/bookingcom/logreport/pkg/drivers/sqlite"
)

var (
	// ErrNoDriver is returned when a store is requested but no driver is configured
	ErrNoDriver = fmt.Errorf("no driver found in configuration")
	// ErrInvalidDate is returned when the date filter is not YYYY-MM-DD
	ErrInvalidDate = fmt.Errorf("invalid date format, use YYYY-MM-DD")
	//nolint:golint,gochecknoglobals
	// https://www.loggly.com/blog/logging-in-new-style-daemons-with-systemd/
	lvlMapJournald = map[zerolog.Level][]byte{
		zerolog.DebugLevel: []byte("<7>"),
		zerolog.InfoLevel:  []byte("<6>"),
		zerolog.WarnLevel:  []byte("<4>"),
		zerolog.ErrorLevel: []byte("<3>"),
		zerolog.FatalLevel: []byte("<0>"),
		zerolog.PanicLevel: []byte("<0>"),
		zerolog.NoLevel:    []byte("<6>"),
	}
	//nolint:golint,gochecknoglobals
	lvlMap = map[string]zerolog.Level{
		"debug": zerolog.DebugLevel, "info": zerolog.InfoLevel,
		"warn": zerolog.WarnLevel, "error": zerolog.ErrorLevel,
	}
)

const (
	mySQL   = "mysql"
	sqlLite = "sqlite"
)

type (
	// Configuration is the basic structure of fields for a report run
	Configuration struct {
		Debug   bool
		Logging struct {
			Level string
			Type  string
		}
		Render struct {
			Format string
		}
		Prometheus PrometheusConfig
		Graphite   GraphiteConfig
		Store      DBConfig
	}
	// DBConfig is a substructure for configuring the report store
	DBConfig struct {
		Mysql  mysql.Config
		Sqlite sqlite.Config
	}
	// JournaldLevelWriter is a structure to write down to systemd journal format
	JournaldLevelWriter struct {
		io.Writer
	}
	// ErrMultipleDrivers is returned when there is more than one driver for the store
	ErrMultipleDrivers []string
)

// WriteLevel makes JournalLevelWriter a zerolog writer and convert log entry to journald format
func (jlw *JournaldLevelWriter) WriteLevel(level zerolog.Level, p []byte) (n int, err error) {
	if level == zerolog.Disabled {
		return len(p), nil
	}
	return jlw.Write(append(lvlMapJournald[level], p...))
}

// Error implement the error interface
func (e ErrMultipleDrivers) Error() string {
	return fmt.Sprintf(
		"got multiple driver definition in configuration: %s",
		strings.Join(e, ", "),
	)
}

// ZerologTo builds the logger from the logging section, console, json and journald
// writers use out.
func (c Configuration) ZerologTo(out io.Writer) zerolog.Logger {
	level, ok := lvlMap[strings.ToLower(c.Logging.Level)]
	if !ok {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	switch {
	case c.Debug:
		level = zerolog.DebugLevel
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true}).
			With().Timestamp().Logger()
	case c.Logging.Type == "syslog":
		writer, err := syslog.New(0, path.Base(os.Args[0]))
		if err != nil {
			panic(err)
		}
		logger = zerolog.New(zerolog.SyslogLevelWriter(writer))
	case c.Logging.Type == "journald":
		logger = zerolog.New(&JournaldLevelWriter{out})
	case c.Logging.Type == "json":
		logger = zerolog.New(out)
	default:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, PartsOrder: []string{
			zerolog.LevelFieldName, zerolog.MessageFieldName,
		}})
	}
	return logger.Level(level)
}

func (c DBConfig) driver() (string, error) {
	var collected []string
	if c.Sqlite.IsSet() {
		collected = append(collected, sqlLite)
	}
	if c.Mysql.IsSet() {
		collected = append(collected, mySQL)
	}
	switch len(collected) {
	case 0:
		return "", ErrNoDriver
	case 1:
		return collected[0], nil
	default:
		return "", ErrMultipleDrivers(collected)
	}
}

// IsSet tells if any store driver is configured
func (c DBConfig) IsSet() bool { return c.Sqlite.IsSet() || c.Mysql.IsSet() }

// NewStore opens the configured report store, exactly one driver must be set.
func (c DBConfig) NewStore(logger zerolog.Logger) (store *drivers.Store, err error) {
	driver, err := c.driver()
	if err != nil {
		logger.Error().Err(err).Msg("failed inferring driver")
		return nil, err
	}
	logger = logger.With().Str("db", driver).Logger()
	switch driver {
	case sqlLite:
		logger.Debug().Str("file", c.Sqlite.String()).Msg("initializing connection")
		store, err = c.Sqlite.Store(logger)
		if err != nil {
			logger.Error().Err(err).Str("file", c.Sqlite.String()).Msg("can't connect")
		}
	case mySQL:
		logger.Debug().Str("string", c.Mysql.String()).Msg("initializing connection")
		store, err = c.Mysql.Store(logger.With().Str("module", "mysql").Logger())
		if err != nil {
			logger.Error().Err(err).Str("string", c.Mysql.String()).Msg("can't connect")
		}
	}
	return store, err
}

// InitOpenTracing creates a tracer from configuration and set it up globally
func (c Configuration) InitOpenTracing(serviceName string) (io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
	}

	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Reporter(jaeger.NewNullReporter()), // Currently reporting is disabled
		jaegercfg.Metrics(metrics.NullFactory),       // Not publishing the opentracing metrics anywhere
	)
	if nil != err {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
