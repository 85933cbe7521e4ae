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

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bookingcom/logreport/pkg/logs"
)

//nolint:golint,gochecknoglobals
var (
	numberRecords = 1000
	date          = time.Now().UTC().Format("2006-01-02")
	endpoints     = "/api/test,/api/other,/api/users,/"
	badRatio      = 0.0
	seed          = time.Now().UnixNano()
)

// nolint:gochecknoinits
func init() {
	flag.IntVar(&numberRecords, "n", numberRecords,
		"number of records to write.")
	flag.StringVar(&date, "d", date,
		"day of the generated timestamps, YYYY-MM-DD.")
	flag.StringVar(&endpoints, "e", endpoints,
		"comma separated list of endpoints to pick from.")
	flag.Float64Var(&badRatio, "bad", badRatio,
		"fraction of malformed lines, between 0 and 1.")
	flag.Int64Var(&seed, "seed", seed,
		"seed of the random source.")
	flag.Parse()
}

func record(r *rand.Rand, day time.Time, urls []string) map[string]interface{} {
	return map[string]interface{}{
		logs.KeyTimestamp:    day.Add(time.Duration(r.Int63n(int64(24 * time.Hour)))).Format(time.RFC3339),
		logs.KeyURL:          urls[r.Intn(len(urls))],
		logs.KeyResponseTime: float64(r.Intn(2000)) / 1000,
		"status":             200,
	}
}

func main() {
	d, err := logs.ParseDate(date)
	if err != nil {
		log.Fatalf("invalid date: %q", date)
	}
	day := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	urls := strings.Split(endpoints, ",")
	r := rand.New(rand.NewSource(seed)) //nolint:gosec

	out := bufio.NewWriter(os.Stdout)
	encoder := json.NewEncoder(out)
	bad := 0
	for i := 0; i < numberRecords; i++ {
		if r.Float64() < badRatio {
			bad++
			if _, err := out.WriteString("{\"url\": \"/broken\"\n"); err != nil {
				log.Fatalf("failed to write: %q", err)
			}
			continue
		}
		if err := encoder.Encode(record(r, day, urls)); err != nil {
			log.Fatalf("failed to encode record: %q", err)
		}
	}
	if err := out.Flush(); err != nil {
		log.Fatalf("failed to flush output: %q", err)
	}
	log.Printf("generated %d records, %d malformed", numberRecords, bad)
}
