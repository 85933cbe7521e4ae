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

package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/opentracing/opentracing-go"
)

const (
	// FormatGrid renders a bordered table
	FormatGrid = "grid"
	// FormatPlain renders tab separated values
	FormatPlain = "plain"
)

type (
	// Renderer writes the report rows under the given headers
	Renderer interface {
		Render(w io.Writer, headers []string, rows []Row) error
		// Available tells if the renderer can be used in this run
		Available() bool
	}
	// Grid renders a bordered grid table, the preferred output
	Grid struct {
		Disabled bool
	}
	// Plain is the tab separated fallback, it is always available
	Plain struct{}
)

// Select returns preferred when it is available and fallback otherwise
func Select(preferred, fallback Renderer) Renderer {
	if preferred != nil && preferred.Available() {
		return preferred
	}
	return fallback
}

// NewRenderer picks the renderer matching a format name
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case FormatGrid, "":
		return Select(Grid{}, Plain{}), nil
	case FormatPlain:
		return Select(Grid{Disabled: true}, Plain{}), nil
	default:
		return nil, fmt.Errorf("unknown format %q, choices are %q, %q", format, FormatGrid, FormatPlain)
	}
}

// Render writes rows with renderer, tracing the call
func Render(ctx context.Context, renderer Renderer, w io.Writer, rows []Row) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "render")
	defer span.Finish()
	span.SetTag("renderer", fmt.Sprintf("%T", renderer))
	return renderer.Render(w, Headers, rows)
}

// Available is false only when the grid was explicitly turned off
func (g Grid) Available() bool { return !g.Disabled }

func (g Grid) Render(w io.Writer, headers []string, rows []Row) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	for _, row := range rows {
		table.Append([]string{row.Endpoint, strconv.Itoa(row.Count), formatFloat(row.Average)})
	}
	table.Render()
	return nil
}

func (Plain) Available() bool { return true }

func (Plain) Render(w io.Writer, headers []string, rows []Row) error {
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintln(w, strings.Join(
			[]string{row.Endpoint, strconv.Itoa(row.Count), plainFloat(row.Average)}, "\t",
		))
		if err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(value float64) string { return strconv.FormatFloat(value, 'f', -1, 64) }

// plainFloat always shows a decimal part: 1 is written 1.0, 0.15 stays 0.15
func plainFloat(value float64) string {
	s := formatFloat(value)
	if math.IsInf(value, 0) || math.IsNaN(value) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
