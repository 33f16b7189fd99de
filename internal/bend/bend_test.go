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
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
)

func TestDefaultTableAnchors(t *testing.T) {
	s := NewService(nil)
	e, ok := s.LookupDeduct("1/2", 45)
	require.True(t, ok)
	assert.Equal(t, 2.5, e.DeductInches)
	e, ok = s.LookupDeduct("1/2", 90)
	require.True(t, ok)
	assert.Equal(t, 5.0, e.DeductInches)
	assert.Equal(t, []string{"1", "1-1/4", "1/2", "3/4"}, s.TradeSizes())
}

func TestLookupInterpolates(t *testing.T) {
	s := NewService(nil)
	e, ok := s.LookupDeduct("1/2", 67.5)
	require.True(t, ok)
	assert.Greater(t, e.DeductInches, 2.5)
	assert.Less(t, e.DeductInches, 5.0)
	assert.Equal(t, 67.5, e.AngleDegrees)

	lo, _ := s.LookupDeduct("1/2", 60)
	hi, _ := s.LookupDeduct("1/2", 90)
	assert.InDelta(t, (lo.GainInches+hi.GainInches)/2, mustLookup(t, s, "1/2", 75).GainInches, 1e-9)
}

func mustLookup(t *testing.T, s *Service, ts string, a float64) Entry {
	t.Helper()
	e, ok := s.LookupDeduct(ts, a)
	require.True(t, ok)
	return e
}

func TestLookupExactClampAndUnknown(t *testing.T) {
	s := NewService(nil)
	e := mustLookup(t, s, "1/2", 45.4)
	assert.Equal(t, 45.0, e.AngleDegrees)
	assert.Equal(t, 10.0, mustLookup(t, s, "1/2", 2).AngleDegrees)
	assert.Equal(t, 90.0, mustLookup(t, s, "1/2", 135).AngleDegrees)
	assert.Equal(t, 5.0, mustLookup(t, s, "1/2\"", 90).DeductInches)

	_, ok := s.LookupDeduct("9", 45)
	assert.False(t, ok)
}

func TestLookupNaNAngle(t *testing.T) {
	s := NewService(nil)
	_, ok := s.LookupDeduct("1/2", math.NaN())
	assert.False(t, ok)
	assert.Equal(t, 95.0, s.ComputeCutLength(100, "1/2", ptr(math.NaN()), ptr(90)))
}

func TestEmptyTableKnowsNoSizes(t *testing.T) {
	rows, err := ParseTable(strings.NewReader("TradeSize,AngleDegrees,BendRadius,DeductInches,TangentLengthInches,GainInches\n3/4,90\n"))
	require.NoError(t, err)
	require.NotNil(t, rows)
	assert.Empty(t, rows)

	s := NewService(rows)
	assert.Empty(t, s.TradeSizes())
	_, ok := s.LookupDeduct("1/2", 90)
	assert.False(t, ok)
	assert.Equal(t, 100.0, s.ComputeCutLength(100, "1/2", ptr(90), ptr(90)))
}

func TestParseTable(t *testing.T) {
	in := strings.Join([]string{
		"TradeSize,AngleDegrees,BendRadius,DeductInches,TangentLengthInches,GainInches,Notes",
		"1/2,45,4,2.5,1.657,0.5,hand bender",
		"3/4,90",
		"1,abc,5.75,8,5.75,2.47",
		"# comment row",
		"1/2\",90,4,5,4,1.72",
	}, "\n")
	rows, err := ParseTable(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Entry{TradeSize: "1/2", AngleDegrees: 45, BendRadius: 4, DeductInches: 2.5, TangentLengthInches: 1.657, GainInches: 0.5}, rows[0])
	assert.Equal(t, "1/2", rows[1].TradeSize)

	_, err = ParseTable(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLoadTableFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bends.csv")
	require.NoError(t, os.WriteFile(p, []byte("h1,h2,h3,h4,h5,h6\n2,90,9.5,13,9.5,4.1\n"), 0o644))
	rows, err := LoadTableFile(p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 13.0, NewService(rows).ComputeCutLength(26, "2", nil, ptr(90)))

	_, err = LoadTableFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func ptr(v float64) *float64 { return &v }

func TestComputeCutLength(t *testing.T) {
	s := NewService(nil)
	assert.Equal(t, 90.0, s.ComputeCutLength(100, "1/2", ptr(90), ptr(90)))
	assert.Equal(t, 97.5, s.ComputeCutLength(100, "1/2", nil, ptr(45)))
	assert.Equal(t, 100.0, s.ComputeCutLength(100, "1/2", nil, nil))
	assert.Equal(t, 100.0, s.ComputeCutLength(100, "9", ptr(90), ptr(90)))
	assert.Equal(t, 0.0, s.ComputeCutLength(3, "1/2", ptr(90), ptr(90)))
}

func TestCutLengthNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		rows := []Entry{
			{TradeSize: "x", AngleDegrees: 0, DeductInches: (rng.Float64() - 0.3) * 1e4},
			{TradeSize: "x", AngleDegrees: 90, DeductInches: (rng.Float64() - 0.3) * 1e4},
		}
		s := NewService(rows)
		raw := rng.Float64() * 500
		got := s.ComputeCutLength(raw, "x", ptr(rng.Float64()*180), ptr(rng.Float64()*180))
		require.GreaterOrEqual(t, got, 0.0)
	}
}

func TestClassifyBend(t *testing.T) {
	assert.Equal(t, BendStub90, ClassifyBend(geom.BasisX, geom.BasisZ, geom.BasisZ))
	assert.Equal(t, BendKick90, ClassifyBend(geom.BasisX, geom.BasisY, geom.BasisZ))
	assert.Equal(t, BendOffset, ClassifyBend(geom.BasisX, geom.P(1, 1, 0), geom.BasisZ))
	assert.Equal(t, BendOffset, ClassifyBend(geom.BasisX, geom.BasisX, geom.BasisZ))
	assert.Equal(t, "saddle", BendSaddle.String())
}

func TestOffsetHelpers(t *testing.T) {
	m, err := OffsetMultiplier(30)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m, 1e-12)
	m, err = OffsetMultiplier(37.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.7, m, 1e-12)
	m, err = OffsetMultiplier(5)
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sin(5*math.Pi/180), m, 1e-12)

	for _, bad := range []float64{0, 90, -10, 120} {
		_, err = OffsetMultiplier(bad)
		assert.ErrorIs(t, err, ErrAngleRange, "angle %v", bad)
	}

	sp, err := CalculateOffsetSpacing(10, 30)
	require.NoError(t, err)
	assert.InDelta(t, 20, sp, 1e-9)
	sh, err := CalculateOffsetShrink(10, 30)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, sh, 1e-12)

	_, err = CalculateOffsetSpacing(-1, 30)
	assert.ErrorIs(t, err, ErrNegativeDepth)
	_, err = CalculateOffsetShrink(5, 90)
	assert.ErrorIs(t, err, ErrAngleRange)
}

func TestSaddles(t *testing.T) {
	three, err := ThreePointSaddle(4)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, three.CenterShift, 1e-12)
	assert.InDelta(t, 10, three.OuterDistance, 1e-12)
	assert.Equal(t, 45.0, three.CenterAngle)

	four, err := FourPointSaddle(6, 10, 30)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-12, 0, 10, 22}, four.Marks[:], 1e-9)
	assert.InDelta(t, 3, four.Shrink, 1e-12)

	_, err = ThreePointSaddle(-2)
	assert.ErrorIs(t, err, ErrNegativeDepth)
	_, err = FourPointSaddle(2, -1, 30)
	assert.Error(t, err)
}

func seg(a, b geom.XYZ) *domain.ConduitSegment {
	return &domain.ConduitSegment{Start: a, End: b}
}

func TestOptimizeSticksMergesAndDeducts(t *testing.T) {
	s := NewService(nil)
	sticks := s.OptimizeSticks([]*domain.ConduitSegment{
		seg(geom.P(0, 0, 0), geom.P(2, 0, 0)),
		seg(geom.P(2, 0, 0), geom.P(4, 0, 0)),
		seg(geom.P(4, 0, 0), geom.P(4, 3, 0)),
	}, "1/2")
	require.Len(t, sticks, 1)
	st := sticks[0]
	assert.InDelta(t, 84, st.RawLengthInches, 1e-9)
	assert.InDelta(t, 5, st.TotalDeductInches, 1e-9)
	assert.InDelta(t, 79, st.CutLengthInches, 1e-9)
	assert.Equal(t, 3, st.SegmentCount)
	assert.Equal(t, 1, st.BendCount)
}

func TestOptimizeSticksSplitsLongRuns(t *testing.T) {
	s := NewService(nil)
	sticks := s.OptimizeSticks([]*domain.ConduitSegment{
		seg(geom.P(0, 0, 0), geom.P(15, 0, 0)),
		seg(geom.P(15, 0, 0), geom.P(15, 3, 0)),
	}, "1/2")
	require.Len(t, sticks, 2)
	assert.InDelta(t, 120, sticks[0].RawLengthInches, 1e-9)
	assert.Zero(t, sticks[0].BendCount)
	assert.InDelta(t, 96, sticks[1].RawLengthInches, 1e-9)
	assert.InDelta(t, 91, sticks[1].CutLengthInches, 1e-9)
	assert.Equal(t, 1, sticks[1].BendCount)
}

func TestOptimizeSticksCouplesWhenFull(t *testing.T) {
	s := NewService(nil, WithMaxStickInches(100))
	sticks := s.OptimizeSticks([]*domain.ConduitSegment{
		seg(geom.P(0, 0, 0), geom.P(0, 0, 7)),
		seg(geom.P(0, 0, 7), geom.P(4, 0, 7)),
	}, "3/4")
	require.Len(t, sticks, 2)
	for _, st := range sticks {
		assert.Zero(t, st.BendCount)
		assert.Equal(t, st.RawLengthInches, st.CutLengthInches)
	}
	assert.Empty(t, s.OptimizeSticks(nil, "3/4"))
}

func totalSegments(sticks []OptimizedStick) int {
	n := 0
	for _, st := range sticks {
		n += st.SegmentCount
	}
	return n
}

func TestOptimizeSticksCountsEachSegmentOnce(t *testing.T) {
	s := NewService(nil)
	sticks := s.OptimizeSticks([]*domain.ConduitSegment{
		seg(geom.P(0, 0, 0), geom.P(10, 0, 0)),
		seg(geom.P(10, 0, 0), geom.P(20, 0, 0)),
		seg(geom.P(20, 0, 0), geom.P(25, 0, 0)),
	}, "1/2")
	require.Len(t, sticks, 3)
	assert.Zero(t, sticks[0].SegmentCount)
	assert.Zero(t, sticks[1].SegmentCount)
	assert.Equal(t, 3, sticks[2].SegmentCount)
	assert.InDelta(t, 60, sticks[2].RawLengthInches, 1e-9)
	assert.Equal(t, 3, totalSegments(sticks))

	even := s.OptimizeSticks([]*domain.ConduitSegment{
		seg(geom.P(0, 0, 0), geom.P(10, 0, 0)),
		seg(geom.P(10, 0, 0), geom.P(20, 0, 0)),
		seg(geom.P(20, 0, 0), geom.P(20, 4, 0)),
	}, "1/2")
	assert.Equal(t, 3, totalSegments(even))
}
