/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// ObstacleBox is an axis-aligned box defined by its min and max corners.
type ObstacleBox struct {
	Min XYZ `json:"min" yaml:"min"`
	Max XYZ `json:"max" yaml:"max"`
}

// Box builds a box from any two opposite corners.
func Box(a, b XYZ) ObstacleBox {
	return ObstacleBox{
		Min: XYZ{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max: XYZ{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
	}
}

// Contains reports whether p lies inside the box, faces included.
func (b ObstacleBox) Contains(p XYZ) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Expand returns a box grown by margin on every side (negative shrinks).
func (b ObstacleBox) Expand(margin float64) ObstacleBox {
	m := XYZ{margin, margin, margin}
	return ObstacleBox{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Union returns the minimal box containing both.
func (b ObstacleBox) Union(o ObstacleBox) ObstacleBox {
	return Box(
		XYZ{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		XYZ{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	)
}

func (b ObstacleBox) Center() XYZ { return b.Min.Add(b.Max).Scale(0.5) }
func (b ObstacleBox) Size() XYZ   { return b.Max.Sub(b.Min) }

// BoxAround returns the bounding box of points grown by padding.
// An empty input yields the zero box.
func BoxAround(points []XYZ, padding float64) ObstacleBox {
	if len(points) == 0 {
		return ObstacleBox{}
	}
	b := ObstacleBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Union(ObstacleBox{Min: p, Max: p})
	}
	return b.Expand(padding)
}
