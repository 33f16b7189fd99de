/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom is the basic 3D geometry for conduit routing. All coordinates
// are in feet. Vector math delegates to golang/geo r3 so XYZ stays a plain
// value type.
package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Epsilon is the tolerance used for point equality and degenerate checks.
const Epsilon = 1e-9

// XYZ is a 3D point or vector.
type XYZ struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Zero   = XYZ{}
	BasisX = XYZ{X: 1}
	BasisY = XYZ{Y: 1}
	BasisZ = XYZ{Z: 1}
)

func P(x, y, z float64) XYZ { return XYZ{X: x, Y: y, Z: z} }

func (p XYZ) String() string { return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z) }

func (p XYZ) vec() r3.Vector  { return r3.Vector(p) }
func fromVec(v r3.Vector) XYZ { return XYZ(v) }

func (p XYZ) Add(o XYZ) XYZ            { return fromVec(p.vec().Add(o.vec())) }
func (p XYZ) Sub(o XYZ) XYZ            { return fromVec(p.vec().Sub(o.vec())) }
func (p XYZ) Scale(f float64) XYZ      { return fromVec(p.vec().Mul(f)) }
func (p XYZ) Negate() XYZ              { return XYZ{-p.X, -p.Y, -p.Z} }
func (p XYZ) Dot(o XYZ) float64        { return p.vec().Dot(o.vec()) }
func (p XYZ) Cross(o XYZ) XYZ          { return fromVec(p.vec().Cross(o.vec())) }
func (p XYZ) Length() float64          { return p.vec().Norm() }
func (p XYZ) DistanceTo(o XYZ) float64 { return p.vec().Distance(o.vec()) }

// Normalize returns the unit vector in the direction of p. A vector shorter
// than Epsilon normalizes to Zero instead of NaN.
func (p XYZ) Normalize() XYZ {
	if p.Length() < Epsilon {
		return Zero
	}
	return fromVec(p.vec().Normalize())
}

// IsZero reports whether p is within Epsilon of the origin.
func (p XYZ) IsZero() bool { return p.Length() < Epsilon }

// IsAlmostEqualTo compares component-wise within Epsilon.
func (p XYZ) IsAlmostEqualTo(o XYZ) bool { return p.IsAlmostEqualWithin(o, Epsilon) }

// IsAlmostEqualWithin compares component-wise within tol.
func (p XYZ) IsAlmostEqualWithin(o XYZ, tol float64) bool {
	return math.Abs(p.X-o.X) <= tol && math.Abs(p.Y-o.Y) <= tol && math.Abs(p.Z-o.Z) <= tol
}

// AngleBetween returns the angle between a and b in radians, in [0, π].
// Zero-length input yields 0.
func AngleBetween(a, b XYZ) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return a.vec().Angle(b.vec()).Radians()
}

// AngleBetweenDegrees is AngleBetween expressed in degrees.
func AngleBetweenDegrees(a, b XYZ) float64 { return Degrees(AngleBetween(a, b)) }

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Round rounds v to n decimal places deterministically.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// Line is an immutable segment between Start and End.
type Line struct{ Start, End XYZ }

func L(start, end XYZ) Line { return Line{Start: start, End: end} }

func (l Line) Vector() XYZ     { return l.End.Sub(l.Start) }
func (l Line) Direction() XYZ  { return l.Vector().Normalize() }
func (l Line) Length() float64 { return l.Vector().Length() }

// Evaluate returns the point at parameter t, where 0 is Start and 1 is End.
func (l Line) Evaluate(t float64) XYZ { return l.Start.Add(l.Vector().Scale(t)) }

// ClosestPointTo projects p onto the line with the parameter clamped to [0,1].
func (l Line) ClosestPointTo(p XYZ) XYZ {
	v := l.Vector()
	den := v.Dot(v)
	if den < Epsilon*Epsilon {
		return l.Start
	}
	t := p.Sub(l.Start).Dot(v) / den
	t = math.Max(0, math.Min(1, t))
	return l.Evaluate(t)
}

// DistanceTo is the distance from p to the closest point on the line.
func (l Line) DistanceTo(p XYZ) float64 { return p.DistanceTo(l.ClosestPointTo(p)) }
