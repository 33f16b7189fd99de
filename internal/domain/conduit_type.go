/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "conduitroute/internal/catalog"

// FittingType identifies the junction part placed between two segments.
type FittingType string

const (
	FittingNone     FittingType = "none"
	FittingElbow90  FittingType = "elbow90"
	FittingElbow45  FittingType = "elbow45"
	FittingCoupling FittingType = "coupling"
	FittingTee      FittingType = "tee"
)

// RoutingPreferenceRule maps an inclusive angle range in degrees to a fitting.
type RoutingPreferenceRule struct {
	MinAngle    float64     `json:"minAngle" yaml:"min_angle"`
	MaxAngle    float64     `json:"maxAngle" yaml:"max_angle"`
	FittingType FittingType `json:"fittingType" yaml:"fitting_type"`
}

func (r RoutingPreferenceRule) Matches(angle float64) bool {
	return angle >= r.MinAngle && angle <= r.MaxAngle
}

// DefaultRoutingPreferences is the stock rule set. The 55–80° band is left
// uncovered on purpose: those bends get no rule match.
func DefaultRoutingPreferences() []RoutingPreferenceRule {
	return []RoutingPreferenceRule{
		{MinAngle: 80, MaxAngle: 100, FittingType: FittingElbow90},
		{MinAngle: 35, MaxAngle: 55, FittingType: FittingElbow45},
		{MinAngle: 0, MaxAngle: 5, FittingType: FittingCoupling},
		{MinAngle: 170, MaxAngle: 180, FittingType: FittingCoupling},
	}
}

// ConduitType describes a family of conduit: material, sizes and fitting rules.
type ConduitType struct {
	ID                 string                      `json:"id" yaml:"id"`
	Name               string                      `json:"name" yaml:"name"`
	Material           catalog.Material            `json:"material" yaml:"material"`
	IsWithFitting      bool                        `json:"isWithFitting" yaml:"is_with_fitting"`
	Sizes              catalog.ConduitSizeSettings `json:"sizes" yaml:"sizes"`
	RoutingPreferences []RoutingPreferenceRule     `json:"routingPreferences" yaml:"routing_preferences"`
}

// NewDefaultConduitType returns an EMT type with fittings and the stock rules.
func NewDefaultConduitType(id string) *ConduitType {
	if id == "" {
		id = DefaultConduitTypeID
	}
	return &ConduitType{
		ID:                 id,
		Name:               "EMT - Default",
		Material:           catalog.MaterialEMT,
		IsWithFitting:      true,
		Sizes:              catalog.EMT(),
		RoutingPreferences: DefaultRoutingPreferences(),
	}
}

// SelectFitting evaluates the rules in order and returns the first match.
// Overlapping ranges are allowed; list order decides.
func (t *ConduitType) SelectFitting(angleDegrees float64) (FittingType, bool) {
	for _, r := range t.RoutingPreferences {
		if r.Matches(angleDegrees) {
			return r.FittingType, true
		}
	}
	return FittingNone, false
}

// FallbackFitting picks an elbow for a genuine bend (strictly between 5° and 170°)
// that no rule covered.
func FallbackFitting(angleDegrees float64) (FittingType, bool) {
	if angleDegrees <= 5 || angleDegrees >= 170 {
		return FittingNone, false
	}
	if angleDegrees > 60 {
		return FittingElbow90, true
	}
	return FittingElbow45, true
}

// Clone returns a deep copy.
func (t *ConduitType) Clone() *ConduitType {
	c := *t
	c.Sizes = t.Sizes.Clone()
	c.RoutingPreferences = append([]RoutingPreferenceRule(nil), t.RoutingPreferences...)
	return &c
}
