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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"
)

const (
	readerBufSize = 64 * 1024
)

type (
	// Loader reads newline-delimited JSON log files into records
	Loader struct {
		zerolog.Logger
		// Date, when set, keeps only the records whose timestamp falls on it
		Date *Date
	}
	// Result is the outcome of loading one or more files
	Result struct {
		Records  []Record
		Lines    int
		Skipped  int
		Filtered int
	}
	// MissingFileError is returned on the first input file which does not exist
	MissingFileError struct {
		Path string
	}
)

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file not found - %s", e.Path)
}

// IsMissingFile tells if err was caused by a missing input file
func IsMissingFile(err error) bool {
	_, ok := err.(*MissingFileError)
	return ok
}

// NewLoader creates a Loader with a silent logger and no date filter
func NewLoader(options ...func(*Loader)) *Loader {
	loader := &Loader{Logger: zerolog.Nop()}
	for _, option := range options {
		option(loader)
	}
	return loader
}

// DateOpt sets the filter date of the Loader
func DateOpt(date *Date) func(*Loader) {
	return func(loader *Loader) { loader.Date = date }
}

// Load reads every path in order and returns the valid records in
// file-then-line order. The first missing file aborts the whole load and no
// record is returned.
func (l *Loader) Load(ctx context.Context, paths []string) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "load")
	defer span.Finish()

	result := &Result{}
	for _, path := range paths {
		if err := l.loadFile(ctx, path, result); err != nil {
			span.SetTag("error", true)
			return nil, err
		}
	}
	span.SetTag("records", len(result.Records))
	l.Debug().Int("lines", result.Lines).Int("skipped", result.Skipped).
		Int("filtered", result.Filtered).Int("records", len(result.Records)).
		Msg("logs loaded")
	return result, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, result *Result) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingFileError{Path: path}
		}
		return err
	}
	defer func() { _ = file.Close() }()

	l.Debug().Str("file", path).Msg("reading file")
	return l.Read(ctx, file, path, result)
}

// Read reads r line by line, appending the valid records to result. Lines
// have no length limit. source only identifies r in warnings.
func (l *Loader) Read(ctx context.Context, r io.Reader, source string, result *Result) error {
	reader := bufio.NewReaderSize(r, readerBufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			return nil
		}
		l.readLine(trimEOL(line), source, result)
		if err == io.EOF {
			return nil
		}
	}
}

func (l *Loader) readLine(line []byte, source string, result *Result) {
	result.Lines++
	record, err := ParseRecord(line)
	if err != nil {
		result.Skipped++
		l.Warn().Str("file", source).Msg("invalid record skipped")
		return
	}
	if l.Date != nil && record.Date() != *l.Date {
		result.Filtered++
		return
	}
	l.Debug().Object("record", record).Msg("record accepted")
	result.Records = append(result.Records, record)
}

// trimEOL drops the line terminator, \n or \r\n
func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
