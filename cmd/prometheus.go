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
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/logs"
	"github.com/bookingcom/logreport/pkg/report"
)

const (
	defaultPrometheusPrefix = "logreport_"
)

type (
	// PrometheusConfig is a structure to configure the prometheus textfile export
	PrometheusConfig struct {
		Prefix   string
		Textfile string
	}
	// Prometheus collects the figures of a run and writes them in the
	// textfile collector format
	Prometheus struct {
		zerolog.Logger
		Registry *prometheus.Registry
		path     string
		records  *prometheus.CounterVec
		requests *prometheus.GaugeVec
		average  *prometheus.GaugeVec
	}
)

func (c PrometheusConfig) prefix() string {
	if c.Prefix == "" {
		return defaultPrometheusPrefix
	}
	return c.Prefix
}

// NewPrometheus returns nil when no textfile is configured
func (c PrometheusConfig) NewPrometheus(options ...func(*Prometheus)) *Prometheus {
	if c.Textfile == "" {
		return nil
	}
	p := &Prometheus{
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
		path:     c.Textfile,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: c.prefix() + "records_total",
			Help: "Log lines read, partitioned by outcome",
		}, []string{"state"}),
		requests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: c.prefix() + "endpoint_requests",
			Help: "Valid requests per endpoint",
		}, []string{"endpoint"}),
		average: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: c.prefix() + "endpoint_response_time_seconds",
			Help: "Average response time per endpoint",
		}, []string{"endpoint"}),
	}
	for _, option := range options {
		option(p)
	}
	p.Registry.MustRegister(p.records, p.requests, p.average)
	return p
}

// Observe records the loader counters and the report rows
func (p *Prometheus) Observe(result *logs.Result, rows []report.Row) {
	p.records.WithLabelValues("valid").Add(float64(len(result.Records)))
	p.records.WithLabelValues("skipped").Add(float64(result.Skipped))
	p.records.WithLabelValues("filtered").Add(float64(result.Filtered))
	for _, row := range rows {
		p.requests.WithLabelValues(row.Endpoint).Set(float64(row.Count))
		p.average.WithLabelValues(row.Endpoint).Set(row.Average)
	}
}

// Flush writes the textfile atomically
func (p *Prometheus) Flush() error {
	p.Debug().Str("path", p.path).Msg("writing prometheus textfile")
	return errors.Wrap(prometheus.WriteToTextfile(p.path, p.Registry), "failed to write prometheus textfile")
}
