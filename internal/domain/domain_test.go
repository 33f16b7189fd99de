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
	"testing"

	"conduitroute/internal/connectivity"
	"conduitroute/internal/geom"
)

func TestDefaultRulesSelectFitting(t *testing.T) {
	ct := NewDefaultConduitType("")
	cases := []struct {
		angle float64
		want  FittingType
		ok    bool
	}{
		{90, FittingElbow90, true},
		{80, FittingElbow90, true},
		{100, FittingElbow90, true},
		{45, FittingElbow45, true},
		{0, FittingCoupling, true},
		{5, FittingCoupling, true},
		{175, FittingCoupling, true},
		{60, FittingNone, false},
		{120, FittingNone, false},
	}
	for _, c := range cases {
		got, ok := ct.SelectFitting(c.angle)
		if got != c.want || ok != c.ok {
			t.Fatalf("SelectFitting(%v) = %q,%v, want %q,%v", c.angle, got, ok, c.want, c.ok)
		}
	}
}

func TestSelectFittingFirstMatchWins(t *testing.T) {
	ct := &ConduitType{RoutingPreferences: []RoutingPreferenceRule{
		{MinAngle: 0, MaxAngle: 90, FittingType: FittingTee},
		{MinAngle: 80, MaxAngle: 100, FittingType: FittingElbow90},
	}}
	if got, _ := ct.SelectFitting(85); got != FittingTee {
		t.Fatalf("overlap picked %q, want tee", got)
	}
}

func TestFallbackFitting(t *testing.T) {
	if ft, ok := FallbackFitting(60); !ok || ft != FittingElbow45 {
		t.Fatalf("FallbackFitting(60) = %q,%v", ft, ok)
	}
	if ft, ok := FallbackFitting(61); !ok || ft != FittingElbow90 {
		t.Fatalf("FallbackFitting(61) = %q,%v", ft, ok)
	}
	for _, a := range []float64{0, 5, 170, 180} {
		if _, ok := FallbackFitting(a); ok {
			t.Fatalf("FallbackFitting(%v) should not produce a fitting", a)
		}
	}
}

func TestSegmentConnectorsPointOutward(t *testing.T) {
	g := connectivity.NewGraph()
	s := &ConduitSegment{ID: "s1", Start: geom.P(0, 0, 0), End: geom.P(10, 0, 0)}
	s.InitializeConnectors(g)
	if g.Len() != 2 {
		t.Fatalf("graph len = %d, want 2", g.Len())
	}
	start, _ := g.Connector("s1:start")
	end, _ := g.Connector("s1:end")
	if !start.Direction.IsAlmostEqualTo(geom.BasisX.Negate()) {
		t.Fatalf("start direction = %+v", start.Direction)
	}
	if !end.Direction.IsAlmostEqualTo(geom.BasisX) || !end.Origin.IsAlmostEqualTo(s.End) {
		t.Fatalf("end connector = %+v", end)
	}

	// moving and re-initializing replaces rather than duplicates
	s.End = geom.P(0, 5, 0)
	s.InitializeConnectors(g)
	if g.Len() != 2 || s.Connectors.Len() != 2 {
		t.Fatalf("after reinit graph=%d manager=%d, want 2/2", g.Len(), s.Connectors.Len())
	}
	end, _ = g.Connector("s1:end")
	if !end.Direction.IsAlmostEqualTo(geom.BasisY) {
		t.Fatalf("end direction after move = %+v", end.Direction)
	}
}

func TestFittingConnectors(t *testing.T) {
	g := connectivity.NewGraph()
	f := &ConduitFitting{ID: "f1", Ports: JunctionPorts(geom.P(10, 0, 0), geom.BasisX, geom.BasisY)}
	f.InitializeConnectors(g)
	c0, ok0 := g.Connector("f1:0")
	c1, ok1 := g.Connector("f1:1")
	if !ok0 || !ok1 {
		t.Fatalf("fitting connectors missing")
	}
	if c0.OwnerID != "f1" || !c0.Direction.IsAlmostEqualTo(geom.BasisX.Negate()) || !c1.Direction.IsAlmostEqualTo(geom.BasisY) {
		t.Fatalf("unexpected ports %+v %+v", c0, c1)
	}
}

type segMap map[string]*ConduitSegment

func (m segMap) Segment(id string) (*ConduitSegment, bool) {
	s, ok := m[id]
	return s, ok
}

func TestRunTotalLengthIsLive(t *testing.T) {
	src := segMap{
		"a": {ID: "a", Start: geom.P(0, 0, 0), End: geom.P(3, 4, 0)},
		"b": {ID: "b", Start: geom.P(3, 4, 0), End: geom.P(3, 4, 2)},
	}
	r := &ConduitRun{SegmentIDs: []string{"a", "b", "missing"}}
	if got := r.ComputeTotalLength(src); math.Abs(got-7) > 1e-9 {
		t.Fatalf("total = %v, want 7", got)
	}
	src["b"].End = geom.P(3, 4, 10)
	if got := r.ComputeTotalLength(src); math.Abs(got-15) > 1e-9 {
		t.Fatalf("total after edit = %v, want 15", got)
	}
}

func TestDetectRiseDrops(t *testing.T) {
	segs := []*ConduitSegment{
		{ID: "flat", Start: geom.P(0, 0, 0), End: geom.P(10, 0, 0)},
		{ID: "up", Start: geom.P(10, 0, 0), End: geom.P(10, 0, 8)},
		{ID: "down", Start: geom.P(10, 0, 8), End: geom.P(11, 0, 2)},
	}
	got := DetectRiseDrops(segs, geom.Zero)
	if len(got) != 2 {
		t.Fatalf("got %d rise/drops, want 2", len(got))
	}
	if got[0].SegmentID != "up" || !got[0].IsRise || math.Abs(got[0].VerticalDistance-8) > 1e-9 {
		t.Fatalf("rise = %+v", got[0])
	}
	if got[1].SegmentID != "down" || got[1].IsRise || math.Abs(got[1].VerticalDistance-6) > 1e-9 {
		t.Fatalf("drop = %+v", got[1])
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if !s.AutoInsertFittings || s.ConnectionTolerance != 0.01 || s.DefaultTradeSize != "3/4" || s.RunIDPrefix != "CR-" {
		t.Fatalf("unexpected defaults %+v", s)
	}
}
