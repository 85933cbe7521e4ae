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

package report

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/logs"
)

const (
	// Average is the only report kind, it averages response times per endpoint
	Average Kind = "average"

	precision = 3
)

var (
	// ErrUnknownKind is returned when a report kind is not supported
	ErrUnknownKind = errors.New("unknown report kind")

	// Headers are the column titles of the average report
	//nolint:golint,gochecknoglobals
	Headers = []string{"Endpoint", "Request count", "Average response time"}
)

type (
	// Kind identifies a report
	Kind string
	// Accumulator holds the running figures of one endpoint
	Accumulator struct {
		Count     int
		TotalTime float64
	}
	// Stats maps an endpoint to its accumulator
	Stats map[string]*Accumulator
	// Row is one line of the report, Average is rounded to 3 decimals
	Row struct {
		Endpoint string
		Count    int
		Average  float64
	}
)

// Kinds lists the supported report kinds
func Kinds() []Kind { return []Kind{Average} }

// ParseKind validates a report kind name
func ParseKind(name string) (Kind, error) {
	for _, kind := range Kinds() {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", ErrUnknownKind
}

// Get returns the accumulator of endpoint, inserting an empty one first if needed
func (s Stats) Get(endpoint string) *Accumulator {
	acc, ok := s[endpoint]
	if !ok {
		acc = &Accumulator{}
		s[endpoint] = acc
	}
	return acc
}

// Add accounts a single response time
func (a *Accumulator) Add(responseTime float64) {
	a.Count++
	a.TotalTime += responseTime
}

// Average is the mean response time, it is only meaningful when Count > 0
func (a Accumulator) Average() float64 { return a.TotalTime / float64(a.Count) }

// Add accounts every record
func (s Stats) Add(records ...logs.Record) {
	for _, record := range records {
		s.Get(record.URL).Add(record.ResponseTime)
	}
}

// Rows computes the rounded averages, sorted by endpoint
func (s Stats) Rows() []Row {
	rows := make([]Row, 0, len(s))
	for endpoint, acc := range s {
		rows = append(rows, Row{endpoint, acc.Count, Round(acc.Average())})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Endpoint < rows[j].Endpoint })
	return rows
}

// MarshalZerologObject makes Row loggable with zerolog Object
func (r Row) MarshalZerologObject(e *zerolog.Event) {
	e.Str("endpoint", r.Endpoint)
	e.Int("count", r.Count)
	e.Float64("average", r.Average)
}

// Round rounds value to 3 decimals using the decimal representation of the
// float, so 0.15000000000000002 gives 0.15.
func Round(value float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(value, 'f', precision, 64), 64)
	return rounded
}

// Aggregate builds the average report rows out of records
func Aggregate(ctx context.Context, records []logs.Record) []Row {
	span, _ := opentracing.StartSpanFromContext(ctx, "aggregate")
	defer span.Finish()

	stats := Stats{}
	stats.Add(records...)
	span.SetTag("endpoints", len(stats))
	return stats.Rows()
}
