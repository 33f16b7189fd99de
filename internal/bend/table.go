/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bend implements hand-bender arithmetic for conduit: deduct table
// lookup with interpolation, cut lengths, bend classification, offset and
// saddle layout marks, and grouping of a run into manufacturable sticks.
// Lengths in this package are inches unless a name says otherwise.
package bend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"conduitroute/internal/catalog"
	applog "conduitroute/internal/log"
)

var (
	ErrNoHeader   = errors.New("bend: table has no header row")
	ErrEmptyTable = errors.New("bend: table has no usable rows")
)

// Entry is one row of a bend deduction table.
type Entry struct {
	TradeSize           string  `json:"tradeSize"`
	AngleDegrees        float64 `json:"angleDegrees"`
	BendRadius          float64 `json:"bendRadius"`
	DeductInches        float64 `json:"deductInches"`
	TangentLengthInches float64 `json:"tangentLengthInches"`
	GainInches          float64 `json:"gainInches"`
}

// ParseTable reads rows of
//
//	TradeSize,AngleDegrees,BendRadius,DeductInches,TangentLengthInches,GainInches
//
// The first row is the header and is required. Extra columns are ignored; rows
// with fewer than six fields or unparsable numbers are skipped. A table with a
// header and no usable rows yields an empty, non-nil slice.
func ParseTable(r io.Reader) ([]Entry, error) {
	l := applog.WithOperation(applog.WithComponent("bend"), "parse_table")
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comment = '#'

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("bend: read header: %w", err)
	}

	out := []Entry{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("bend: read row %d: %w", line, err)
		}
		if len(rec) < 6 {
			l.Debug("skipping short row", slog.Int("line", line), slog.Int("fields", len(rec)))
			continue
		}
		e, ok := parseEntry(rec)
		if !ok {
			l.Debug("skipping malformed row", slog.Int("line", line))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func parseEntry(rec []string) (Entry, bool) {
	var nums [5]float64
	for i := range nums {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil || math.IsNaN(v) {
			return Entry{}, false
		}
		nums[i] = v
	}
	ts := catalog.NormalizeTradeSize(rec[0])
	if ts == "" {
		return Entry{}, false
	}
	return Entry{
		TradeSize:           ts,
		AngleDegrees:        nums[0],
		BendRadius:          nums[1],
		DeductInches:        nums[2],
		TangentLengthInches: nums[3],
		GainInches:          nums[4],
	}, true
}

// LoadTableFile parses a table from disk.
func LoadTableFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseTable(f)
}

// hand bender take-up for a 90° bend and centerline radius, inches
var defaultBenders = []struct {
	tradeSize     string
	deduct90      float64
	centerlineRad float64
}{
	{"1/2", 5.0, 4.0},
	{"3/4", 6.0, 4.5},
	{"1", 8.0, 5.75},
	{"1-1/4", 11.0, 7.25},
}

var defaultAngles = []float64{10, 22.5, 30, 45, 60, 90}

// DefaultTable is the built-in EMT hand bender table. Deducts scale linearly
// with angle from the 90° take-up; tangent and gain follow the bend radius.
func DefaultTable() []Entry {
	out := make([]Entry, 0, len(defaultBenders)*len(defaultAngles))
	for _, b := range defaultBenders {
		for _, a := range defaultAngles {
			half := a * math.Pi / 360
			tangent := b.centerlineRad * math.Tan(half)
			arc := b.centerlineRad * a * math.Pi / 180
			out = append(out, Entry{
				TradeSize:           b.tradeSize,
				AngleDegrees:        a,
				BendRadius:          b.centerlineRad,
				DeductInches:        round3(b.deduct90 * a / 90),
				TangentLengthInches: round3(tangent),
				GainInches:          round3(2*tangent - arc),
			})
		}
	}
	return out
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
