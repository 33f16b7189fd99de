/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bend

import (
	"math"
	"sort"

	"conduitroute/internal/catalog"
)

// DefaultMaxStickInches is a standard 10 ft conduit stick.
const DefaultMaxStickInches = 120.0

// exactMatchDegrees is how close a table angle must be to be used without interpolation.
const exactMatchDegrees = 0.5

// Service answers deduct and cut-length questions against one table.
type Service struct {
	bySize   map[string][]Entry
	maxStick float64
}

// Option configures a Service.
type Option func(*Service)

func WithMaxStickInches(v float64) Option {
	return func(s *Service) {
		if v > 0 {
			s.maxStick = v
		}
	}
}

// NewService indexes entries by trade size. A nil table means DefaultTable; an
// empty non-nil table gives a service that knows no trade sizes.
func NewService(entries []Entry, opts ...Option) *Service {
	if entries == nil {
		entries = DefaultTable()
	}
	s := &Service{bySize: map[string][]Entry{}, maxStick: DefaultMaxStickInches}
	for _, e := range entries {
		ts := catalog.NormalizeTradeSize(e.TradeSize)
		e.TradeSize = ts
		s.bySize[ts] = append(s.bySize[ts], e)
	}
	for _, rows := range s.bySize {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].AngleDegrees < rows[j].AngleDegrees })
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) MaxStickInches() float64 { return s.maxStick }

// TradeSizes lists the trade sizes present in the table.
func (s *Service) TradeSizes() []string {
	out := make([]string, 0, len(s.bySize))
	for ts := range s.bySize {
		out = append(out, ts)
	}
	sort.Strings(out)
	return out
}

// LookupDeduct returns the table row for a trade size and angle. A row within
// half a degree is returned as is; otherwise the two neighbouring rows are
// interpolated, and angles outside the table clamp to the nearest end.
// Unknown trade sizes report false.
func (s *Service) LookupDeduct(tradeSize string, angle float64) (Entry, bool) {
	rows := s.bySize[catalog.NormalizeTradeSize(tradeSize)]
	if len(rows) == 0 || math.IsNaN(angle) {
		return Entry{}, false
	}
	best, bestD := -1, exactMatchDegrees
	for i, r := range rows {
		if d := math.Abs(r.AngleDegrees - angle); d <= bestD {
			best, bestD = i, d
		}
	}
	if best >= 0 {
		return rows[best], true
	}
	if angle <= rows[0].AngleDegrees {
		return rows[0], true
	}
	last := rows[len(rows)-1]
	if angle >= last.AngleDegrees {
		return last, true
	}
	hi := sort.Search(len(rows), func(i int) bool { return rows[i].AngleDegrees > angle })
	lo := rows[hi-1]
	up := rows[hi]
	t := (angle - lo.AngleDegrees) / (up.AngleDegrees - lo.AngleDegrees)
	return Entry{
		TradeSize:           lo.TradeSize,
		AngleDegrees:        angle,
		BendRadius:          lerp(lo.BendRadius, up.BendRadius, t),
		DeductInches:        lerp(lo.DeductInches, up.DeductInches, t),
		TangentLengthInches: lerp(lo.TangentLengthInches, up.TangentLengthInches, t),
		GainInches:          lerp(lo.GainInches, up.GainInches, t),
	}, true
}

// ComputeCutLength subtracts the deduct of each bent end from raw. A nil angle
// means a straight end; ends without a table row deduct nothing. The result is
// never negative.
func (s *Service) ComputeCutLength(raw float64, tradeSize string, startAngle, endAngle *float64) float64 {
	cut := raw
	for _, a := range []*float64{startAngle, endAngle} {
		if a == nil {
			continue
		}
		if e, ok := s.LookupDeduct(tradeSize, *a); ok {
			cut -= e.DeductInches
		}
	}
	if math.IsNaN(cut) || cut < 0 {
		return 0
	}
	return cut
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
