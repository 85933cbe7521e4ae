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

package util

import (
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/logs"
	"github.com/bookingcom/logreport/pkg/report"
)

type (
	// RowsLog is mapping a list of report.Row to a logger
	RowsLog []report.Row
	// ResultLog is mapping the logs.Result counters to a logger
	ResultLog logs.Result
)

func (rl RowsLog) MarshalZerologArray(a *zerolog.Array) {
	for _, row := range rl {
		a.Object(row)
	}
}

func (rl ResultLog) MarshalZerologObject(e *zerolog.Event) {
	e.Int("lines", rl.Lines)
	e.Int("skipped", rl.Skipped)
	e.Int("filtered", rl.Filtered)
	e.Int("records", len(rl.Records))
}
