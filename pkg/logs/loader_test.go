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
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bookingcom/logreport/internal"
)

func date(t *testing.T, value string) *Date {
	t.Helper()
	d, err := ParseDate(value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %q", value, err)
	}
	return &d
}

func TestLoad(t *testing.T) {
	path := internal.LogFile(t, internal.SampleLines...)

	result, err := NewLoader().Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("Load() want: %d records, got: %d", 3, len(result.Records))
	}
	want := []string{"/api/test", "/api/test", "/api/other"}
	for i, record := range result.Records {
		if record.URL != want[i] {
			t.Errorf("Load()[%d] want: %q, got: %q", i, want[i], record.URL)
		}
	}
	if result.Lines != 3 || result.Skipped != 0 || result.Filtered != 0 {
		t.Errorf("Load() counters want: 3/0/0, got: %d/%d/%d",
			result.Lines, result.Skipped, result.Filtered)
	}
}

func TestLoadDateFilter(t *testing.T) {
	path := internal.LogFile(t, internal.SampleLines...)
	logs := internal.LogBuffer{}

	loader := NewLoader(DateOpt(date(t, "2025-06-22")), func(l *Loader) {
		l.Logger = logs.Logger()
	})
	result, err := loader.Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 2 || result.Filtered != 1 {
		t.Errorf("Load(2025-06-22) want: 2 records 1 filtered, got: %d records %d filtered",
			len(result.Records), result.Filtered)
	}
	// a date mismatch is not a malformed record
	if n := logs.Count(`"level":"warn"`); n != 0 {
		t.Errorf("Load(2025-06-22) want: no warning, got: %d\n%s", n, logs.String())
	}
}

func TestLoadDateFilterIgnoresOffset(t *testing.T) {
	path := internal.LogFile(t,
		`{"@timestamp":"2025-06-22T23:30:00-05:00","url":"/a","response_time":1}`,
		`{"@timestamp":"2025-06-23T01:00:00+09:00","url":"/b","response_time":1}`,
	)
	result, err := NewLoader(DateOpt(date(t, "2025-06-22"))).
		Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 1 || result.Records[0].URL != "/a" {
		t.Errorf("Load(2025-06-22) want: [/a], got: %+v", result.Records)
	}
}

func TestLoadMalformedLines(t *testing.T) {
	path := internal.LogFile(t,
		internal.SampleLines[0],
		`not json at all`,
		`{"@timestamp":"2025-06-22T10:00:00+00:00","url":"/api/test","response_time":"fast"}`,
		internal.SampleLines[2],
	)
	logs := internal.LogBuffer{}

	result, err := NewLoader(func(l *Loader) { l.Logger = logs.Logger() }).
		Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 2 || result.Skipped != 2 {
		t.Errorf("Load() want: 2 records 2 skipped, got: %d records %d skipped",
			len(result.Records), result.Skipped)
	}
	if n := logs.Count(`"level":"warn"`, path, "invalid record skipped"); n != 2 {
		t.Errorf("Load() want: 2 warnings naming %q, got: %d\n%s", path, n, logs.String())
	}
}

func TestLoadMultipleFilesOrder(t *testing.T) {
	first := internal.LogFile(t, internal.SampleLines[2])
	second := internal.LogFile(t, internal.SampleLines[0], internal.SampleLines[1])

	result, err := NewLoader().Load(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	var got []string
	for _, record := range result.Records {
		got = append(got, record.URL)
	}
	want := []string{"/api/other", "/api/test", "/api/test"}
	if !internal.StrSliceEqual(got, want) {
		t.Errorf("Load() want: %v, got: %v", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	valid := internal.LogFile(t, internal.SampleLines...)
	missing := internal.MissingPath(t)

	for _, paths := range [][]string{
		{missing},
		{valid, missing},
		{missing, valid},
	} {
		result, err := NewLoader().Load(context.Background(), paths)
		if !IsMissingFile(err) {
			t.Errorf("Load(%v) want: missing file error, got: %s", paths, internal.TestError(err))
			continue
		}
		if result != nil {
			t.Errorf("Load(%v) want: no result, got: %+v", paths, result)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("Load(%v) want error naming %q, got: %q", paths, missing, err)
		}
	}
}

func TestLoadCancelled(t *testing.T) {
	path := internal.LogFile(t, internal.SampleLines...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLoader().Load(ctx, []string{path}); err != context.Canceled {
		t.Errorf("Load() want: %q, got: %s", context.Canceled, internal.TestError(err))
	}
}

func TestReadBlankLines(t *testing.T) {
	logs := internal.LogBuffer{}
	input := internal.SampleLines[0] + "\n\n" + internal.SampleLines[1] + "\n"
	result := &Result{}

	err := NewLoader(func(l *Loader) { l.Logger = logs.Logger() }).
		Read(context.Background(), strings.NewReader(input), "stdin", result)
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 2 || result.Skipped != 1 || result.Lines != 3 {
		t.Errorf("Read() want: 2 records 1 skipped 3 lines, got: %d/%d/%d",
			len(result.Records), result.Skipped, result.Lines)
	}
	if n := logs.Count("stdin"); n != 1 {
		t.Errorf("Read() want: 1 warning, got: %d", n)
	}
}

func TestReadLongLines(t *testing.T) {
	logs := internal.LogBuffer{}
	padding := strings.Repeat(" ", 2*1024*1024)
	long := `{"@timestamp":"2025-06-22T10:02:00+00:00","url":"/api/long",` + padding + `"response_time":0.4}`
	broken := `{"url":"` + strings.Repeat("x", 3*1024*1024)
	input := internal.SampleLines[0] + "\n" + long + "\r\n" + broken + "\n" + internal.SampleLines[1]
	result := &Result{}

	err := NewLoader(func(l *Loader) { l.Logger = logs.Logger() }).
		Read(context.Background(), strings.NewReader(input), "big.log", result)
	if err != nil {
		t.Fatalf("unexpected error: %q", err)
	}
	if len(result.Records) != 3 || result.Skipped != 1 || result.Lines != 4 {
		t.Fatalf("Read() want: 3 records 1 skipped 4 lines, got: %d/%d/%d",
			len(result.Records), result.Skipped, result.Lines)
	}
	if result.Records[1].URL != "/api/long" || result.Records[1].ResponseTime != 0.4 {
		t.Errorf("Read()[1] want: /api/long 0.4, got: %q %v",
			result.Records[1].URL, result.Records[1].ResponseTime)
	}
	if n := logs.Count("big.log"); n != 1 {
		t.Errorf("Read() want: 1 warning, got: %d", n)
	}
}

func TestRecordDate(t *testing.T) {
	ts := time.Date(2025, 6, 22, 23, 0, 0, 0, time.FixedZone("", -3600))
	if got := (Record{Timestamp: ts}).Date(); got != *date(t, "2025-06-22") {
		t.Errorf("Date() want: 2025-06-22, got: %s", got)
	}
}
