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

	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
)

// colinearDegrees is the largest turn treated as a straight continuation.
const colinearDegrees = 1.0

// OptimizedStick is one piece of conduit as cut and bent in the field.
type OptimizedStick struct {
	RawLengthInches   float64   `json:"rawLengthInches"`
	CutLengthInches   float64   `json:"cutLengthInches"`
	TotalDeductInches float64   `json:"totalDeductInches"`
	SegmentCount      int       `json:"segmentCount"`
	BendCount         int       `json:"bendCount"`
	BendAngles        []float64 `json:"bendAngles,omitempty"`
}

type piece struct {
	inches   float64
	segments int
	turn     float64 // degrees into the next piece, 0 for the last
}

// mergeColinear joins consecutive segments that continue in the same direction.
func mergeColinear(segments []*domain.ConduitSegment) []piece {
	var out []piece
	var prev geom.XYZ
	for _, s := range segments {
		if s == nil || s.Length() < geom.Epsilon {
			continue
		}
		d := s.Direction()
		inches := s.Length() * 12
		if n := len(out); n > 0 {
			turn := geom.AngleBetweenDegrees(prev, d)
			if turn <= colinearDegrees {
				out[n-1].inches += inches
				out[n-1].segments++
				prev = d
				continue
			}
			out[n-1].turn = turn
		}
		out = append(out, piece{inches: inches, segments: 1})
		prev = d
	}
	return out
}

// OptimizeSticks groups an ordered run of segments into sticks no longer than
// the service's maximum. Colinear segments are merged first; consecutive
// pieces share a stick, and pay their bend deduct, while they fit. A piece
// that does not fit starts a new stick joined by a coupling, and pieces longer
// than a full stick are split into full sticks plus a remainder.
func (s *Service) OptimizeSticks(segments []*domain.ConduitSegment, tradeSize string) []OptimizedStick {
	pieces := mergeColinear(segments)
	var out []OptimizedStick
	var cur OptimizedStick
	flush := func() {
		if cur.SegmentCount == 0 {
			return
		}
		cur.CutLengthInches = math.Max(0, cur.RawLengthInches-cur.TotalDeductInches)
		out = append(out, cur)
		cur = OptimizedStick{}
	}

	for i, p := range pieces {
		remaining := p.inches
		if cur.SegmentCount > 0 && cur.RawLengthInches+remaining > s.maxStick {
			flush()
		}
		// full sticks split off a long piece carry no segments of their own;
		// the piece's segments are counted once, on its last stick
		var split []OptimizedStick
		for cur.SegmentCount == 0 && remaining > s.maxStick {
			split = append(split, OptimizedStick{RawLengthInches: s.maxStick, CutLengthInches: s.maxStick})
			remaining -= s.maxStick
		}
		out = append(out, split...)
		if remaining <= geom.Epsilon {
			if n := len(out); n > 0 && len(split) > 0 {
				out[n-1].SegmentCount += p.segments
			}
			continue
		}
		if cur.SegmentCount > 0 {
			turn := pieces[i-1].turn
			cur.BendCount++
			cur.BendAngles = append(cur.BendAngles, geom.Round(turn, 3))
			if e, ok := s.LookupDeduct(tradeSize, turn); ok {
				cur.TotalDeductInches += e.DeductInches
			}
		}
		cur.RawLengthInches += remaining
		cur.SegmentCount += p.segments
	}
	flush()
	return out
}
