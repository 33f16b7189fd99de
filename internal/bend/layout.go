/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bend

import (
	"errors"
	"fmt"
	"math"

	"conduitroute/internal/geom"
)

var (
	ErrNegativeDepth = errors.New("bend: depth must not be negative")
	ErrAngleRange    = errors.New("bend: angle must be between 0 and 90 degrees exclusive")
)

// BendType names the bend geometry between two consecutive segments.
type BendType int

const (
	BendOffset BendType = iota
	BendStub90
	BendKick90
	// BendSaddle needs three or four bends to recognise and is never returned
	// by ClassifyBend.
	BendSaddle
)

func (b BendType) String() string {
	switch b {
	case BendStub90:
		return "stub90"
	case BendKick90:
		return "kick90"
	case BendSaddle:
		return "saddle"
	default:
		return "offset"
	}
}

// ClassifyBend names the bend from d1 to d2. Near-right angles are stubs when
// either leg runs along up and kicks otherwise; everything else is an offset.
func ClassifyBend(d1, d2, up geom.XYZ) BendType {
	a := geom.AngleBetweenDegrees(d1, d2)
	if a < 80 || a > 100 {
		return BendOffset
	}
	u := up.Normalize()
	if math.Abs(d1.Normalize().Dot(u)) >= 0.7 || math.Abs(d2.Normalize().Dot(u)) >= 0.7 {
		return BendStub90
	}
	return BendKick90
}

type anchor struct{ angle, value float64 }

// field multipliers (spacing per inch of depth) and shrink per inch of depth
var (
	multiplierAnchors = []anchor{{10, 6.0}, {15, 3.9}, {22.5, 2.6}, {30, 2.0}, {45, 1.4}, {60, 1.2}}
	shrinkAnchors     = []anchor{{10, 1.0 / 16}, {15, 1.0 / 8}, {22.5, 3.0 / 16}, {30, 1.0 / 4}, {45, 3.0 / 8}, {60, 1.0 / 2}}
)

// interpolate reads a value from anchors, using exact(angle) outside their range.
func interpolate(anchors []anchor, angle float64, exact func(float64) float64) float64 {
	if angle < anchors[0].angle || angle > anchors[len(anchors)-1].angle {
		return exact(angle)
	}
	for i := 1; i < len(anchors); i++ {
		lo, hi := anchors[i-1], anchors[i]
		if angle <= hi.angle {
			return lerp(lo.value, hi.value, (angle-lo.angle)/(hi.angle-lo.angle))
		}
	}
	return anchors[len(anchors)-1].value
}

func checkAngle(angle float64) error {
	if !(angle > 0 && angle < 90) {
		return fmt.Errorf("%w: %v", ErrAngleRange, angle)
	}
	return nil
}

func checkDepth(depth float64) error {
	if depth < 0 || math.IsNaN(depth) {
		return fmt.Errorf("%w: %v", ErrNegativeDepth, depth)
	}
	return nil
}

func cosecant(deg float64) float64    { return 1 / math.Sin(geom.Radians(deg)) }
func halfTangent(deg float64) float64 { return math.Tan(geom.Radians(deg) / 2) }

// OffsetMultiplier is the field multiplier for an offset bent at angle.
// Between 10° and 60° it follows the bender's anchor table; outside it is the
// exact cosecant.
func OffsetMultiplier(angle float64) (float64, error) {
	if err := checkAngle(angle); err != nil {
		return 0, err
	}
	return interpolate(multiplierAnchors, angle, cosecant), nil
}

// CalculateOffsetSpacing is the distance between the two bend marks of an
// offset: depth / sin(angle).
func CalculateOffsetSpacing(depth, angle float64) (float64, error) {
	if err := checkDepth(depth); err != nil {
		return 0, err
	}
	if err := checkAngle(angle); err != nil {
		return 0, err
	}
	return depth * cosecant(angle), nil
}

// CalculateOffsetShrink is how much an offset shortens the run toward the obstacle.
func CalculateOffsetShrink(depth, angle float64) (float64, error) {
	if err := checkDepth(depth); err != nil {
		return 0, err
	}
	if err := checkAngle(angle); err != nil {
		return 0, err
	}
	return depth * interpolate(shrinkAnchors, angle, halfTangent), nil
}

// ThreePointMarks lays out a 45° center / 22.5° outer saddle relative to the
// obstacle center mark.
type ThreePointMarks struct {
	CenterAngle   float64 `json:"centerAngle"`
	OuterAngle    float64 `json:"outerAngle"`
	CenterShift   float64 `json:"centerShift"`   // move the center mark away from the pipe end
	OuterDistance float64 `json:"outerDistance"` // from center to each outer mark
	Shrink        float64 `json:"shrink"`
}

func ThreePointSaddle(depth float64) (ThreePointMarks, error) {
	if err := checkDepth(depth); err != nil {
		return ThreePointMarks{}, err
	}
	return ThreePointMarks{
		CenterAngle:   45,
		OuterAngle:    22.5,
		CenterShift:   depth * 3 / 16,
		OuterDistance: depth * 2.5,
		Shrink:        depth * 3 / 16,
	}, nil
}

// FourPointMarks holds the four bend marks of a four-point saddle measured
// from the near edge of the obstacle.
type FourPointMarks struct {
	Marks   [4]float64 `json:"marks"`
	Spacing float64    `json:"spacing"`
	Shrink  float64    `json:"shrink"`
}

// FourPointSaddle is two offsets of equal depth around an obstacle of width.
func FourPointSaddle(depth, width, angle float64) (FourPointMarks, error) {
	if err := checkDepth(depth); err != nil {
		return FourPointMarks{}, err
	}
	if width < 0 {
		return FourPointMarks{}, fmt.Errorf("bend: obstacle width must not be negative: %v", width)
	}
	m, err := OffsetMultiplier(angle)
	if err != nil {
		return FourPointMarks{}, err
	}
	shrink, err := CalculateOffsetShrink(depth, angle)
	if err != nil {
		return FourPointMarks{}, err
	}
	spacing := depth * m
	return FourPointMarks{
		Marks:   [4]float64{-spacing, 0, width, width + spacing},
		Spacing: spacing,
		Shrink:  2 * shrink,
	}, nil
}
