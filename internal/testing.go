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

package internal

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

var (
	// ErrNoop is here to be used for testing only
	// Purpose is to be propagated up the stack and retrieved/compared later
	// for error propagation check
	ErrNoop = fmt.Errorf("noop")

	// SampleLines are the reference access log lines used across packages
	//nolint:golint,gochecknoglobals
	SampleLines = []string{
		`{"@timestamp":"2025-06-22T10:00:00+00:00","url":"/api/test","response_time":0.1}`,
		`{"@timestamp":"2025-06-22T10:01:00+00:00","url":"/api/test","response_time":0.2}`,
		`{"@timestamp":"2025-06-23T10:00:00+00:00","url":"/api/other","response_time":0.3}`,
	}
)

type (
	testError struct{ error }

	// LogBuffer captures zerolog output so tests can count emitted events
	LogBuffer struct {
		bytes.Buffer
	}
)

// TestError creates an error for testing purpose out of a regular error interface
func TestError(err error) testError { //nolint:golint
	return testError{err}
}

// Error satisfy the error interface
func (te testError) Error() string {
	return te.String()
}

// String dump the current error as a string
func (te testError) String() string {
	if te.error == nil {
		return "Error{nil}"
	}
	return "Error{" + te.error.Error() + "}"
}

// ErrEqual compare two errors, it is safe to use with nil values and will compare
// the string representation
func ErrEqual(err1, err2 error) bool {
	return (err1 == nil && err2 == nil) ||
		(err1 != nil && err2 != nil && err1.Error() == err2.Error())
}

// Logger returns a JSON zerolog logger writing into the buffer
func (lb *LogBuffer) Logger() zerolog.Logger {
	return zerolog.New(lb).Level(zerolog.InfoLevel)
}

// Count returns the number of captured log lines containing every substring
func (lb *LogBuffer) Count(substrings ...string) int {
	count := 0
	for _, line := range strings.Split(lb.String(), "\n") {
		if line == "" {
			continue
		}
		matches := true
		for _, sub := range substrings {
			if !strings.Contains(line, sub) {
				matches = false
				break
			}
		}
		if matches {
			count++
		}
	}
	return count
}

// ReadAll is a wrapper around ioutil.ReadAll and abort on error
func ReadAll(t *testing.T, r io.Reader) string {
	t.Helper()
	content, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read from buffer")
	}
	return string(content)
}

// StrSliceEqual compare two slices of strings, it is safe to use with nil values.
func StrSliceEqual(slice1, slice2 []string) bool {
	if len(slice1) != len(slice2) {
		return false
	}
	for i := range slice1 {
		if slice1[i] != slice2[i] {
			return false
		}
	}
	return true
}

// TempDir creates a temporary directory removed when the test ends
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "logreport")
	if err != nil {
		t.Fatalf("failed to create temp dir for test: %q", err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("failed to teardown test: %q", err)
		}
	})
	return dir
}

// LogFile writes the lines, newline separated without a trailing newline,
// into a new file of a temporary directory and returns its path.
func LogFile(t *testing.T, lines ...string) string {
	t.Helper()
	file, err := ioutil.TempFile(TempDir(t), "*.log")
	if err != nil {
		t.Fatalf("failed to create temp file for test: %q", err)
	}
	defer func() { _ = file.Close() }()
	if _, err := file.WriteString(strings.Join(lines, "\n")); err != nil {
		t.Fatalf("failed to write temp file for test: %q", err)
	}
	return file.Name()
}

// MissingPath returns a path which is guaranteed not to exist
func MissingPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(TempDir(t), "missing.log")
}
