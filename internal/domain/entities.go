/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"
	"strconv"

	"conduitroute/internal/catalog"
	"conduitroute/internal/connectivity"
	"conduitroute/internal/geom"
)

// ConduitSegment is a straight piece of conduit between two points (feet).
// Length and direction are derived from the endpoints; after moving an endpoint
// call InitializeConnectors again.
type ConduitSegment struct {
	ID            string           `json:"id"`
	Start         geom.XYZ         `json:"start"`
	End           geom.XYZ         `json:"end"`
	LevelID       string           `json:"levelId,omitempty"`
	ConduitTypeID string           `json:"conduitTypeId"`
	Diameter      float64          `json:"diameter"` // outer diameter, feet
	TradeSize     string           `json:"tradeSize"`
	Material      catalog.Material `json:"material"`

	Connectors connectivity.Manager `json:"-"`
}

func (s *ConduitSegment) Line() geom.Line     { return geom.L(s.Start, s.End) }
func (s *ConduitSegment) Length() float64     { return s.Line().Length() }
func (s *ConduitSegment) Direction() geom.XYZ { return s.Line().Direction() }

// StartConnectorID and EndConnectorID name the two endpoint connectors.
func (s *ConduitSegment) StartConnectorID() string { return s.ID + ":start" }
func (s *ConduitSegment) EndConnectorID() string   { return s.ID + ":end" }

// InitializeConnectors drops any connectors the segment held and registers a
// fresh start/end pair. Both point away from the segment body.
func (s *ConduitSegment) InitializeConnectors(g *connectivity.Graph) {
	s.Connectors.Release(g)
	s.Connectors = connectivity.NewManager(s.ID)
	d := s.Direction()
	s.Connectors.Create(g, s.StartConnectorID(), s.Start, d.Negate())
	s.Connectors.Create(g, s.EndConnectorID(), s.End, d)
}

// Port is one connection point of a fitting.
type Port struct {
	Origin    geom.XYZ `json:"origin"`
	Direction geom.XYZ `json:"direction"`
}

// ConduitFitting joins segments at a shared location.
type ConduitFitting struct {
	ID           string      `json:"id"`
	FittingType  FittingType `json:"fittingType"`
	Location     geom.XYZ    `json:"location"`
	AngleDegrees float64     `json:"angleDegrees"`
	TradeSize    string      `json:"tradeSize"`
	BendRadius   float64     `json:"bendRadius,omitempty"`   // inches
	DeductLength float64     `json:"deductLength,omitempty"` // inches
	SegmentIDs   []string    `json:"segmentIds"`
	Ports        []Port      `json:"ports"`

	Connectors connectivity.Manager `json:"-"`
}

// PortConnectorID names the connector registered for port n.
func (f *ConduitFitting) PortConnectorID(n int) string {
	return f.ID + ":" + strconv.Itoa(n)
}

// InitializeConnectors registers one connector per port.
func (f *ConduitFitting) InitializeConnectors(g *connectivity.Graph) {
	f.Connectors.Release(g)
	f.Connectors = connectivity.NewManager(f.ID)
	for i, p := range f.Ports {
		f.Connectors.Create(g, f.PortConnectorID(i), p.Origin, p.Direction)
	}
}

// JunctionPorts builds the two ports of an inline fitting between an incoming
// direction a and an outgoing direction b meeting at loc.
func JunctionPorts(loc, a, b geom.XYZ) []Port {
	return []Port{
		{Origin: loc, Direction: a.Normalize().Negate()},
		{Origin: loc, Direction: b.Normalize()},
	}
}

// ConduitRun is a named, ordered view over segment and fitting ids.
type ConduitRun struct {
	ID            string           `json:"id"`
	RunID         string           `json:"runId"`
	SegmentIDs    []string         `json:"segmentIds"`
	FittingIDs    []string         `json:"fittingIds"`
	FromEquipment string           `json:"fromEquipment,omitempty"`
	ToEquipment   string           `json:"toEquipment,omitempty"`
	Voltage       string           `json:"voltage,omitempty"`
	FillPercent   float64          `json:"fillPercent,omitempty"`
	ConduitTypeID string           `json:"conduitTypeId"`
	TradeSize     string           `json:"tradeSize"`
	Material      catalog.Material `json:"material"`
	LevelID       string           `json:"levelId,omitempty"`
}

// SegmentSource resolves segment ids, typically the model store.
type SegmentSource interface {
	Segment(id string) (*ConduitSegment, bool)
}

// ComputeTotalLength sums the current lengths of the run's segments.
// Ids the source no longer knows are skipped.
func (r *ConduitRun) ComputeTotalLength(src SegmentSource) float64 {
	total := 0.0
	for _, id := range r.SegmentIDs {
		if s, ok := src.Segment(id); ok {
			total += s.Length()
		}
	}
	return total
}

// RiseDropInfo marks a vertical segment for plan-view symbols.
type RiseDropInfo struct {
	SegmentID        string   `json:"segmentId"`
	Location         geom.XYZ `json:"location"`
	IsRise           bool     `json:"isRise"`
	VerticalDistance float64  `json:"verticalDistance"`
}

// VerticalThreshold is the |direction·up| above which a segment counts as vertical.
const VerticalThreshold = 0.7

// DetectRiseDrops reports every vertical segment. A zero up vector means +Z.
func DetectRiseDrops(segments []*ConduitSegment, up geom.XYZ) []RiseDropInfo {
	up = up.Normalize()
	if up.IsZero() {
		up = geom.BasisZ
	}
	var out []RiseDropInfo
	for _, s := range segments {
		dot := s.Direction().Dot(up)
		if math.Abs(dot) <= VerticalThreshold {
			continue
		}
		out = append(out, RiseDropInfo{
			SegmentID:        s.ID,
			Location:         s.Start,
			IsRise:           dot > 0,
			VerticalDistance: math.Abs(s.End.Sub(s.Start).Dot(up)),
		})
	}
	return out
}
