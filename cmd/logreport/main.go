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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bookingcom/logreport/cmd"
	"github.com/bookingcom/logreport/pkg/logs"
	"github.com/bookingcom/logreport/pkg/report"
	"github.com/bookingcom/logreport/pkg/util"
)

const (
	// EnvPrefix is the environment prefix used by viper to map fields to environment variables
	EnvPrefix = "LOGREPORT"
	// ServiceName is passed to the tracer
	ServiceName = "logreport"
	// NoData is printed instead of a report when no record is left
	NoData = "No data found for processing"
)

type (
	// options are the per invocation inputs, they are not part of the configuration file
	options struct {
		files  []string
		report string
		date   string
	}
)

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	var (
		opts   options
		config = viper.New()
	)
	command := &cobra.Command{
		Use:   "logreport --file <path> [--file <path>...] --report average [--date YYYY-MM-DD]",
		Short: "Per endpoint statistics out of newline-delimited JSON access logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// https://github.com/spf13/cobra/issues/340
			cmd.SilenceUsage = true
			return run(config, opts, stdout, stderr)
		},
	}
	command.SetOutput(stderr)

	flags := command.Flags()
	flags.StringArrayVar(&opts.files, "file", nil, "Log file path (can be specified multiple times)")
	flags.StringVar(&opts.report, "report", "", `Report type to generate, choices are "average"`)
	flags.StringVar(&opts.date, "date", "", "Filter records by date (YYYY-MM-DD)")

	flags.String("config", "", "Path to an optional configuration file")
	flags.String("format", report.FormatGrid, `Output format, choices are "grid", "plain"`)
	flags.StringP("level", "l", "info",
		`Set log level, choices are "debug", "info", "warn", "error"`)
	flags.BoolP("debug", "d", false, "Trigger debug logs")
	flags.String("metrics-file", "", "Write run metrics to this prometheus textfile")
	flags.String("graphite", "", "Push report metrics to this graphite host:port")
	flags.String("store-sqlite", "", "Append the report rows to this sqlite database")

	config.SetEnvPrefix(EnvPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	_ = config.BindPFlag("config", flags.Lookup("config"))
	_ = config.BindPFlag("render.format", flags.Lookup("format"))
	_ = config.BindPFlag("logging.level", flags.Lookup("level"))
	_ = config.BindPFlag("debug", flags.Lookup("debug"))
	_ = config.BindPFlag("prometheus.textfile", flags.Lookup("metrics-file"))
	_ = config.BindPFlag("graphite.addr", flags.Lookup("graphite"))
	_ = config.BindPFlag("store.sqlite.file", flags.Lookup("store-sqlite"))

	return command
}

func validate(opts options) (*logs.Date, error) {
	if len(opts.files) == 0 {
		return nil, errors.New(`required flag(s) "file" not set`)
	}
	if opts.report == "" {
		return nil, errors.New(`required flag(s) "report" not set`)
	}
	if _, err := report.ParseKind(opts.report); err != nil {
		return nil, errors.Wrapf(err, "invalid argument %q for --report", opts.report)
	}
	if opts.date == "" {
		return nil, nil
	}
	date, err := logs.ParseDate(opts.date)
	if err != nil {
		return nil, cmd.ErrInvalidDate
	}
	return &date, nil
}

func loadConfig(v *viper.Viper) (cmd.Configuration, error) {
	var config cmd.Configuration

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config, errors.Wrap(err, "failed to read config file")
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func run(v *viper.Viper, opts options, stdout, stderr io.Writer) error {
	date, err := validate(opts)
	if err != nil {
		return err
	}
	config, err := loadConfig(v)
	if err != nil {
		return err
	}
	renderer, err := report.NewRenderer(config.Render.Format)
	if err != nil {
		return err
	}
	logger := config.ZerologTo(stderr)
	runID, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "failed to generate run id")
	}
	logger = logger.With().Str("run", runID.String()).Logger()
	logger.Debug().Msg("debug mode enabled")
	logger.Debug().Str("format", config.Render.Format).Bool("store", config.Store.IsSet()).
		Msg("loaded config")

	closer, err := config.InitOpenTracing(ServiceName)
	if err != nil {
		return errors.Wrap(err, "failed to init opentracing")
	}
	defer func() { _ = closer.Close() }()

	ctx, release := cmd.WithInterrupt(context.Background(), logger)
	defer release()

	loader := logs.NewLoader(logs.DateOpt(date), func(l *logs.Loader) { l.Logger = logger })
	result, err := loader.Load(ctx, opts.files)
	if logs.IsMissingFile(err) {
		return err
	}
	if err != nil {
		return errors.Wrap(err, "failed to load logs")
	}
	logger.Debug().Object("result", util.ResultLog(*result)).Msg("load done")
	if len(result.Records) == 0 {
		_, err = fmt.Fprintln(stdout, NoData)
		return err
	}

	rows := report.Aggregate(ctx, result.Records)
	logger.Debug().Array("rows", util.RowsLog(rows)).Msg("report computed")
	if err := report.Render(ctx, renderer, stdout, rows); err != nil {
		return errors.Wrap(err, "failed to render report")
	}

	return export(config, logger, runID.String(), result, rows)
}

// export hands the report to the optional sinks configured for this run
func export(config cmd.Configuration, logger zerolog.Logger, runID string, result *logs.Result, rows []report.Row) error {
	var sinks []cmd.Sink
	if prometheus := config.Prometheus.NewPrometheus(func(p *cmd.Prometheus) { p.Logger = logger }); prometheus != nil {
		prometheus.Observe(result, rows)
		sinks = append(sinks, prometheus)
	}
	graphite, err := config.Graphite.NewGraphite(logger)
	if err != nil {
		return errors.Wrap(err, "failed to instantiate graphite")
	}
	if graphite != nil {
		graphite.Observe(rows)
		sinks = append(sinks, graphite)
	}
	if config.Store.IsSet() {
		store, err := config.Store.NewStore(logger)
		if err != nil {
			return errors.Wrap(err, "failed to instantiate store")
		}
		defer func() { _ = store.Close() }()
		if err := store.Save(runID, rows); err != nil {
			return errors.Wrap(err, "failed to store report")
		}
	}
	return cmd.FlushSinks(logger, sinks...)
}

func execute(args []string, stdout, stderr io.Writer) int {
	command := newCommand(stdout, stderr)
	command.SetArgs(args)
	if err := command.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
