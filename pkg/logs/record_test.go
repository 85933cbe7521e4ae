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
	"encoding/json"
	"testing"
	"time"

	"github.com/bookingcom/logreport/internal"
)

var entriesParseRecord = []struct {
	line string
	url  string
	rt   float64
	err  error
}{
	{`{"@timestamp":"2025-06-22T10:00:00+00:00","url":"/api/test","response_time":0.1}`, "/api/test", 0.1, nil},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":"/a","response_time":"0.25","status":200}`, "/a", 0.25, nil},
	{`{"@timestamp":"2025-06-22 10:00:00.123","url":"/b","response_time":" 3 "}`, "/b", 3, nil},
	{`{"@timestamp":"2025-06-22","url":"/c","response_time":1e-3}`, "/c", 0.001, nil},
	{`not json`, "", 0, ErrInvalidRecord},
	{``, "", 0, ErrInvalidRecord},
	{`[1, 2]`, "", 0, ErrInvalidRecord},
	{`null`, "", 0, ErrInvalidRecord},
	{`{"url":"/a","response_time":1}`, "", 0, ErrMissingField},
	{`{"@timestamp":"2025-06-22T10:00:00Z","response_time":1}`, "", 0, ErrMissingField},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":"/a"}`, "", 0, ErrMissingField},
	{`{"@timestamp":"yesterday","url":"/a","response_time":1}`, "", 0, ErrBadTimestamp},
	{`{"@timestamp":1750586400,"url":"/a","response_time":1}`, "", 0, ErrBadTimestamp},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":null,"response_time":1}`, "", 0, ErrInvalidRecord},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":["/a"],"response_time":1}`, "", 0, ErrInvalidRecord},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":"/a","response_time":"fast"}`, "", 0, ErrBadResponseTime},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":"/a","response_time":null}`, "", 0, ErrBadResponseTime},
	{`{"@timestamp":"2025-06-22T10:00:00Z","url":"/a","response_time":true}`, "", 0, ErrBadResponseTime},
}

func TestParseRecord(t *testing.T) {
	for _, entry := range entriesParseRecord {
		record, err := ParseRecord([]byte(entry.line))
		if !internal.ErrEqual(err, entry.err) {
			t.Errorf("ParseRecord(%s) want: %s, got: %s",
				entry.line, internal.TestError(entry.err), internal.TestError(err))
			continue
		}
		if err == nil && (record.URL != entry.url || record.ResponseTime != entry.rt) {
			t.Errorf("ParseRecord(%s) want: %q/%v, got: %q/%v",
				entry.line, entry.url, entry.rt, record.URL, record.ResponseTime)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		err   error
	}{
		{"2025-06-22T10:00:00+00:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC), nil},
		{"2025-06-22T10:00:00.5Z", time.Date(2025, 6, 22, 10, 0, 0, 5e8, time.UTC), nil},
		{"2025-06-22T10:00:00+0200", time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC), nil},
		{"2025-06-22 10:00:00+02:00", time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC), nil},
		{"2025-06-22T10:00:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC), nil},
		{"2025-06-22T10:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC), nil},
		{"2025-06-22", time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), nil},
		{"22/Jun/2025:10:00:00 +0000", time.Time{}, ErrBadTimestamp},
		{"", time.Time{}, ErrBadTimestamp},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		if !internal.ErrEqual(err, tt.err) || !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) want: %v, %s - got: %v, %s",
				tt.input, tt.want, internal.TestError(tt.err), got, internal.TestError(err))
		}
	}
}

func TestParseResponseTime(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		err  error
	}{
		{`0.1`, 0.1, nil},
		{`12`, 12, nil},
		{`"0.75"`, 0.75, nil},
		{`"1e2"`, 100, nil},
		{`""`, 0, ErrBadResponseTime},
		{`"1,5"`, 0, ErrBadResponseTime},
		{`{}`, 0, ErrBadResponseTime},
	}
	for _, tt := range tests {
		got, err := ParseResponseTime(json.RawMessage(tt.raw))
		if got != tt.want || !internal.ErrEqual(err, tt.err) {
			t.Errorf("ParseResponseTime(%s) want: %v, %s - got: %v, %s",
				tt.raw, tt.want, internal.TestError(tt.err), got, internal.TestError(err))
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, value := range []string{
		"invalid-date", "22-06-2025", "2025-06-22T00:00:00Z", "", "25-06-22", "2025-13-01", "2025-02-30",
	} {
		if _, err := ParseDate(value); err == nil {
			t.Errorf("ParseDate(%q) want: error, got: nil", value)
		}
	}
	tests := map[string]Date{
		"2025-06-22": {2025, time.June, 22},
		"2025-6-22":  {2025, time.June, 22},
		"2025-06-2":  {2025, time.June, 2},
		"2025-1-1":   {2025, time.January, 1},
	}
	for value, want := range tests {
		d, err := ParseDate(value)
		if err != nil || d != want {
			t.Errorf("ParseDate(%q) want: %s, got: %s, %s", value, want, d, internal.TestError(err))
		}
	}
	if d, _ := ParseDate("2025-6-2"); d.String() != "2025-06-02" {
		t.Errorf("Date.String() want: 2025-06-02, got: %s", d)
	}
}
