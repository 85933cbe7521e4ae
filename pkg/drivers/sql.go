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

package drivers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/report"
)

const (
	createReport = `CREATE TABLE IF NOT EXISTS endpoint_report (
run_id VARCHAR(36) NOT NULL,
generated_at BIGINT NOT NULL,
endpoint VARCHAR(2048) NOT NULL,
request_count BIGINT NOT NULL,
avg_response_time DOUBLE PRECISION NOT NULL)`
	insertRow = `INSERT INTO endpoint_report(run_id, generated_at, endpoint, request_count, avg_response_time)
VALUES(?, ?, ?, ?, ?)`
	getRows = `SELECT endpoint, request_count, avg_response_time FROM endpoint_report
WHERE run_id = ? ORDER BY endpoint`
)

var (
	// ErrDB is simple error to propagate up the call stack
	ErrDB = errors.New("database error")
)

type (
	// Store is a wrapper around a database client and a logger
	// It persists the rows of a report, one set of rows per run
	Store struct {
		zerolog.Logger
		*sql.DB
		Now func() time.Time
	}
)

func NewStore(db *sql.DB, options ...func(*Store)) *Store {
	store := &Store{DB: db, Logger: zerolog.Nop(), Now: time.Now}
	for _, option := range options {
		option(store)
	}
	return store
}

// Init creates the report table when it does not exist yet
func (s *Store) Init() error {
	if _, err := s.Exec(createReport); err != nil {
		s.Error().Err(err).Msg("table creation failed")
		return ErrDB
	}
	return nil
}

// Save writes the rows of a run in a single transaction
func (s *Store) Save(runID string, rows []report.Row) error {
	logger := s.With().Str("run", runID).Int("rows", len(rows)).Logger()
	logger.Debug().Msg("saving report")
	tx, err := s.Begin()
	if err != nil {
		logger.Error().Err(err).Msg("transaction start failed")
		return ErrDB
	}
	stmt, err := tx.Prepare(insertRow)
	if err != nil {
		logger.Error().Err(err).Msg("query preparation failed")
		_ = tx.Rollback()
		return ErrDB
	}
	defer func() { _ = stmt.Close() }()

	now := s.Now().Unix()
	for _, row := range rows {
		if _, err = stmt.Exec(runID, now, row.Endpoint, row.Count, row.Average); err != nil {
			logger.Error().Err(err).Str("endpoint", row.Endpoint).Msg("query execution failed")
			_ = tx.Rollback()
			return ErrDB
		}
	}
	if err = tx.Commit(); err != nil {
		logger.Error().Err(err).Msg("commit failed")
		return ErrDB
	}
	return nil
}

// Load returns the rows saved for a run, sorted by endpoint
func (s *Store) Load(runID string) ([]report.Row, error) {
	logger := s.With().Str("run", runID).Logger()
	logger.Debug().Msg("loading report")
	stmt, err := s.Prepare(getRows)
	if err != nil {
		logger.Error().Err(err).Msg("query preparation failed")
		return nil, ErrDB
	}
	defer func() { _ = stmt.Close() }()

	rows, err := stmt.Query(runID)
	if err != nil {
		logger.Error().Err(err).Msg("query execution failed")
		return nil, ErrDB
	}
	defer func() { _ = rows.Close() }()

	var result []report.Row
	for rows.Next() {
		var row report.Row
		if err = rows.Scan(&row.Endpoint, &row.Count, &row.Average); err != nil {
			logger.Error().Err(err).Msg("row scan failed")
			return nil, ErrDB
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		logger.Error().Err(err).Msg("row iteration failed")
		return nil, ErrDB
	}
	return result, nil
}
