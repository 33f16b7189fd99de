/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package polyline turns raw point paths into clean conduit geometry:
// Ramer-Douglas-Peucker simplification, heading snapping and segment creation.
package polyline

import (
	"math"

	"github.com/google/uuid"

	"conduitroute/internal/catalog"
	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
)

// RamerDouglasPeucker drops points closer than epsilon to the chord of their
// enclosing span. Inputs of two points or fewer are returned unchanged.
func RamerDouglasPeucker(points []geom.XYZ, epsilon float64) []geom.XYZ {
	if len(points) <= 2 {
		return append(make([]geom.XYZ, 0, len(points)), points...)
	}
	first, last := points[0], points[len(points)-1]
	idx, maxD := 0, 0.0
	for i := 1; i < len(points)-1; i++ {
		if d := PerpendicularDistance(points[i], first, last); d > maxD {
			idx, maxD = i, d
		}
	}
	if maxD <= epsilon {
		return []geom.XYZ{first, last}
	}
	left := RamerDouglasPeucker(points[:idx+1], epsilon)
	right := RamerDouglasPeucker(points[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// PerpendicularDistance is the distance from p to the infinite line through a
// and b, or to a itself when a and b coincide.
func PerpendicularDistance(p, a, b geom.XYZ) float64 {
	ab := b.Sub(a)
	if ab.IsZero() {
		return p.DistanceTo(a)
	}
	return ab.Cross(p.Sub(a)).Length() / ab.Length()
}

// Orthogonalize snaps the plan heading of every leg to the nearest multiple of
// 90° (orthoOnly) or 45°. Each leg keeps its plan length and vertical rise, so
// later vertices may move away from the input.
func Orthogonalize(points []geom.XYZ, orthoOnly bool) []geom.XYZ {
	if len(points) < 2 {
		return append([]geom.XYZ(nil), points...)
	}
	step := math.Pi / 4
	if orthoOnly {
		step = math.Pi / 2
	}
	out := make([]geom.XYZ, len(points))
	out[0] = points[0]
	for i := 1; i < len(points); i++ {
		d := points[i].Sub(points[i-1])
		plan := math.Hypot(d.X, d.Y)
		if plan < geom.Epsilon {
			out[i] = out[i-1].Add(geom.P(0, 0, d.Z))
			continue
		}
		h := math.Round(math.Atan2(d.Y, d.X)/step) * step
		out[i] = out[i-1].Add(geom.P(
			geom.Round(plan*math.Cos(h), 9),
			geom.Round(plan*math.Sin(h), 9),
			d.Z,
		))
	}
	return out
}

// DedupePoints removes consecutive points closer than tol to their predecessor.
func DedupePoints(points []geom.XYZ, tol float64) []geom.XYZ {
	out := make([]geom.XYZ, 0, len(points))
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].DistanceTo(p) <= tol {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CreateSegmentsFromPath builds one segment per consecutive point pair. The
// diameter comes from the EMT table and stays zero for an unknown trade size.
func CreateSegmentsFromPath(points []geom.XYZ, tradeSize, levelID string) []*domain.ConduitSegment {
	if len(points) < 2 {
		return nil
	}
	diameter := 0.0
	if sz, ok := catalog.EMT().Lookup(tradeSize); ok {
		diameter = sz.OuterDiameterFeet()
	}
	segs := make([]*domain.ConduitSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		segs = append(segs, &domain.ConduitSegment{
			ID:        uuid.NewString(),
			Start:     points[i-1],
			End:       points[i],
			LevelID:   levelID,
			TradeSize: tradeSize,
			Diameter:  diameter,
		})
	}
	return segs
}
