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

package mysql

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/bookingcom/logreport/pkg/drivers"
)

const (
	defaultPort = 3306
	dialTimeout = 5 * time.Second
)

type (
	// Config is the structure containing the information to reach the MySQL report database
	Config struct {
		Host     string
		Port     int
		Name     string
		User     string
		Password string
		TLS      bool
	}
	// LoggerFunc pipes the driver error log to zerolog
	// https://github.com/go-sql-driver/mysql/blob/749ddf1598b47e3cd909414bda735fe790ef3d30/errors.go#L43
	LoggerFunc func(v ...interface{})
)

func (lf LoggerFunc) Print(v ...interface{}) { lf(v...) }

// DSN builds the driver data source name
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
	cfg.DBName = c.Name
	cfg.Timeout = dialTimeout
	if c.TLS {
		cfg.TLSConfig = "skip-verify"
	}
	return cfg.FormatDSN()
}

func (c Config) port() int {
	if c.Port == 0 {
		return defaultPort
	}
	return c.Port
}

func (c Config) IsSet() bool {
	return c.Host != "" || c.Name != "" || c.User != ""
}

// String is the connection target without credentials, safe to log
func (c Config) String() string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s", c.User, c.Host, c.port(), c.Name)
}

// Store connects to the database and ensures the report table exists
func (c Config) Store(logger zerolog.Logger) (*drivers.Store, error) {
	err := mysql.SetLogger(LoggerFunc(func(v ...interface{}) {
		logger.Error().Msg(fmt.Sprint(v...))
	}))
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, err
	}
	// https://github.com/go-sql-driver/mysql/issues/674#issuecomment-489830198
	db.SetConnMaxLifetime(10 * time.Second)
	db.SetMaxIdleConns(0)
	store := drivers.NewStore(db, func(s *drivers.Store) { s.Logger = logger })
	if err := store.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
