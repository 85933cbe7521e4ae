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
	"net"
	"os"
	"sort"
	"strings"
	"time"

	graphite "github.com/cyberdelia/go-metrics-graphite"
	"github.com/pkg/errors"
	goMetrics "github.com/rcrowley/go-metrics"
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/report"
)

const (
	metricNSPrefix = "ops.logreport"
)

type (
	// GraphiteConfig configures the one-shot graphite push, Addr is host:port
	GraphiteConfig struct {
		Addr   string
		Prefix string
	}
	Graphite struct {
		registry  goMetrics.Registry
		namespace string
		logger    zerolog.Logger
		addr      *net.TCPAddr
	}
)

//nolint:golint,gochecknoglobals
var (
	latencyValues = []float64{0.1, 0.5, 1, 2, 5, 10}
	latencyLabels = []string{"latency.point-one", "latency.point-five", "latency.one",
		"latency.two", "latency.five", "latency.ten"}
	metricReplacer = strings.NewReplacer("/", "_", ".", "_", " ", "_", "?", "_", "=", "_")
)

// NewGraphite returns nil when no address is configured
func (c GraphiteConfig) NewGraphite(logger zerolog.Logger) (*Graphite, error) {
	if c.Addr == "" {
		return nil, nil
	}
	addr, err := net.ResolveTCPAddr("tcp", c.Addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve graphite address")
	}
	prefix := c.Prefix
	if prefix == "" {
		prefix = metricNSPrefix
	}
	n, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hostname")
	}
	hostname := strings.Split(n, ".")[0]
	namespace := fmt.Sprintf("%s.%s", prefix, hostname)

	return &Graphite{
		namespace: namespace,
		registry:  goMetrics.NewRegistry(),
		logger:    logger,
		addr:      addr,
	}, nil
}

// Observe registers per endpoint count, average and latency bucket
func (g *Graphite) Observe(rows []report.Row) {
	for _, row := range rows {
		name := metricName(row.Endpoint)
		goMetrics.GetOrRegisterGauge(name+".count", g.registry).Update(int64(row.Count))
		goMetrics.GetOrRegisterGaugeFloat64(name+".average", g.registry).Update(row.Average)
		goMetrics.GetOrRegisterCounter(name+"."+fromLatency(row.Average), g.registry).
			Inc(int64(row.Count))
	}
}

// Flush sends every registered metric once
func (g *Graphite) Flush() error {
	g.logger.Debug().Str("addr", g.addr.String()).Str("namespace", g.namespace).
		Msg("pushing graphite metrics")
	err := graphite.Once(graphite.Config{
		Addr:          g.addr,
		Registry:      g.registry,
		Prefix:        g.namespace,
		FlushInterval: time.Second,
		DurationUnit:  time.Nanosecond,
		Percentiles:   []float64{0.5, 0.75, 0.95, 0.99},
	})
	return errors.Wrap(err, "failed to push graphite metrics")
}

// metricName turns an endpoint into a graphite path segment: /api/v1/users -> api_v1_users
func metricName(endpoint string) string {
	name := metricReplacer.Replace(strings.Trim(endpoint, "/"))
	if name == "" {
		return "root"
	}
	return name
}

func fromLatency(value float64) string {
	i := sort.SearchFloat64s(latencyValues, value)
	if i == len(latencyLabels) {
		i--
	}
	return latencyLabels[i]
}
