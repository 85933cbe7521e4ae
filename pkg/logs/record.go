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

package logs

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// KeyTimestamp is the record key holding the ISO-8601 timestamp
	KeyTimestamp = "@timestamp"
	// KeyURL is the record key holding the requested endpoint
	KeyURL = "url"
	// KeyResponseTime is the record key holding the response time in seconds
	KeyResponseTime = "response_time"

	dateLayout = "2006-01-02"
	// filterLayout also takes single digit month and day, 2025-6-2
	filterLayout = "2006-1-2"
)

var (
	// ErrInvalidRecord is returned when a line is not a JSON object
	ErrInvalidRecord = errors.New("invalid record")
	// ErrMissingField is returned when one of the required keys is absent
	ErrMissingField = errors.New("missing required field")
	// ErrBadTimestamp is returned when the timestamp is not an ISO-8601 date
	ErrBadTimestamp = errors.New("malformed timestamp")
	// ErrBadResponseTime is returned when the response time is not a number
	ErrBadResponseTime = errors.New("malformed response time")

	//nolint:golint,gochecknoglobals
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		dateLayout,
	}
)

type (
	// Record is a validated log line, only the fields used by reports are kept
	Record struct {
		Timestamp    time.Time
		URL          string
		ResponseTime float64
	}
	// Date is a calendar date without time of day nor location
	Date struct {
		Year  int
		Month time.Month
		Day   int
	}
	// rawRecord keeps the required values undecoded so their types can be checked
	rawRecord map[string]json.RawMessage
)

// ParseDate parses a YYYY-MM-DD string into a Date, month and day may be
// written with a single digit.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(filterLayout, value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t as written in its own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{y, m, d}
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// MarshalZerologObject makes Record loggable with zerolog Object
func (r Record) MarshalZerologObject(e *zerolog.Event) {
	e.Time("timestamp", r.Timestamp)
	e.Str("url", r.URL)
	e.Float64("response_time", r.ResponseTime)
}

// Date returns the calendar date of the record timestamp
func (r Record) Date() Date { return DateOf(r.Timestamp) }

// ParseTimestamp reads the ISO-8601 forms found in access logs. The offset,
// when present, is kept as the location of the returned time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}

// ParseResponseTime accepts a JSON number or a string holding a number
func ParseResponseTime(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, ErrBadResponseTime
	}
	value := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, ErrBadResponseTime
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, ErrBadResponseTime
	}
	return f, nil
}

// ParseRecord decodes one log line. Keys other than the required ones are ignored.
func ParseRecord(line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil || raw == nil {
		return Record{}, ErrInvalidRecord
	}
	rawTS, okTS := raw[KeyTimestamp]
	rawURL, okURL := raw[KeyURL]
	rawRT, okRT := raw[KeyResponseTime]
	if !okTS || !okURL || !okRT {
		return Record{}, ErrMissingField
	}

	var record Record
	var ts string
	if err := json.Unmarshal(rawTS, &ts); err != nil {
		return Record{}, ErrBadTimestamp
	}
	t, err := ParseTimestamp(ts)
	if err != nil {
		return Record{}, err
	}
	record.Timestamp = t
	if bytes.Equal(bytes.TrimSpace(rawURL), []byte("null")) {
		return Record{}, ErrInvalidRecord
	}
	if err := json.Unmarshal(rawURL, &record.URL); err != nil {
		return Record{}, ErrInvalidRecord
	}
	if record.ResponseTime, err = ParseResponseTime(rawRT); err != nil {
		return Record{}, err
	}
	return record, nil
}
