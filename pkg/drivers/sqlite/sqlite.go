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

package sqlite

import (
	"database/sql"

	// load the sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/drivers"
)

type (
	// Config is the structure containing the information to create a sqlite connection
	Config struct {
		File string
	}
)

func (c Config) IsSet() bool { return c.File != "" }

func (c Config) String() string { return c.File }

// Store opens the database file and ensures the report table exists
func (c Config) Store(logger zerolog.Logger) (*drivers.Store, error) {
	db, err := sql.Open("sqlite3", c.File)
	if err != nil {
		return nil, err
	}
	// a single writer avoids "database is locked" with concurrent statements
	db.SetMaxOpenConns(1)
	store := drivers.NewStore(db, func(s *drivers.Store) { s.Logger = logger })
	if err := store.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
