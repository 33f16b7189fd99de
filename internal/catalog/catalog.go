/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog holds trade-size dimension tables per conduit material standard.
// Dimensions follow NEC Chapter 9, Table 4 and are expressed in inches; weights in lb/ft.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Material is a conduit material standard.
type Material string

const (
	MaterialEMT   Material = "EMT"
	MaterialRMC   Material = "RMC"
	MaterialPVC40 Material = "PVC40"
)

// ErrTooShort is returned by ValidateLength for segments below the minimum length.
var ErrTooShort = errors.New("catalog: conduit length below minimum")

// ParseMaterial maps common spellings to a Material. Unknown values are returned as-is upper-cased.
func ParseMaterial(s string) Material {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "EMT", "EMT-STEEL":
		return MaterialEMT
	case "RMC", "RIGID", "GRC":
		return MaterialRMC
	case "PVC", "PVC40", "PVC-40", "SCH40":
		return MaterialPVC40
	}
	return Material(v)
}

// ConduitSize is one row of a size table.
type ConduitSize struct {
	TradeSize       string  `json:"tradeSize" yaml:"trade_size"`
	NominalDiameter float64 `json:"nominalDiameter" yaml:"nominal_diameter"`
	OuterDiameter   float64 `json:"outerDiameter" yaml:"outer_diameter"`
	InnerDiameter   float64 `json:"innerDiameter" yaml:"inner_diameter"`
	WeightPerFoot   float64 `json:"weightPerFoot" yaml:"weight_per_foot"`
}

// OuterDiameterFeet converts the outer diameter to model units.
func (s ConduitSize) OuterDiameterFeet() float64 { return s.OuterDiameter / 12 }

// ConduitSizeSettings is an ordered size table for one material standard.
// It owns no segments and is referenced by value.
type ConduitSizeSettings struct {
	Material        Material      `json:"material" yaml:"material"`
	Sizes           []ConduitSize `json:"sizes" yaml:"sizes"`
	MinLengthInches float64       `json:"minLengthInches" yaml:"min_length_inches"`
}

// Lookup returns the size row for a trade size.
func (s ConduitSizeSettings) Lookup(tradeSize string) (ConduitSize, bool) {
	ts := NormalizeTradeSize(tradeSize)
	for _, c := range s.Sizes {
		if c.TradeSize == ts {
			return c, true
		}
	}
	return ConduitSize{}, false
}

func (s ConduitSizeSettings) Contains(tradeSize string) bool {
	_, ok := s.Lookup(tradeSize)
	return ok
}

// First returns the first standard trade size in table order.
func (s ConduitSizeSettings) First() (string, bool) {
	if len(s.Sizes) == 0 {
		return "", false
	}
	return s.Sizes[0].TradeSize, true
}

func (s ConduitSizeSettings) TradeSizes() []string {
	out := make([]string, 0, len(s.Sizes))
	for _, c := range s.Sizes {
		out = append(out, c.TradeSize)
	}
	return out
}

// ValidateLength checks a length in feet against MinLengthInches.
func (s ConduitSizeSettings) ValidateLength(lengthFeet float64) error {
	if lengthFeet*12 < s.MinLengthInches {
		return fmt.Errorf("%w: %.3f in < %.3f in", ErrTooShort, lengthFeet*12, s.MinLengthInches)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate sizes independently.
func (s ConduitSizeSettings) Clone() ConduitSizeSettings {
	out := s
	out.Sizes = append([]ConduitSize(nil), s.Sizes...)
	return out
}

// NormalizeTradeSize accepts "3/4", " 3/4\"", "1 1/4" and "1-1/4" and returns the
// canonical hyphenated form used by the tables.
func NormalizeTradeSize(s string) string {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "\"")
	v = strings.TrimSuffix(v, "in")
	v = strings.TrimSpace(v)
	return strings.Join(strings.Fields(v), "-")
}
