/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

// DefaultMinLengthInches is the shortest stick accepted by the built-in tables.
const DefaultMinLengthInches = 6.0

func emtSizes() []ConduitSize {
	return []ConduitSize{
		{TradeSize: "1/2", NominalDiameter: 0.5, OuterDiameter: 0.706, InnerDiameter: 0.622, WeightPerFoot: 0.29},
		{TradeSize: "3/4", NominalDiameter: 0.75, OuterDiameter: 0.922, InnerDiameter: 0.824, WeightPerFoot: 0.45},
		{TradeSize: "1", NominalDiameter: 1, OuterDiameter: 1.163, InnerDiameter: 1.049, WeightPerFoot: 0.65},
		{TradeSize: "1-1/4", NominalDiameter: 1.25, OuterDiameter: 1.510, InnerDiameter: 1.380, WeightPerFoot: 0.96},
		{TradeSize: "1-1/2", NominalDiameter: 1.5, OuterDiameter: 1.740, InnerDiameter: 1.610, WeightPerFoot: 1.11},
		{TradeSize: "2", NominalDiameter: 2, OuterDiameter: 2.197, InnerDiameter: 2.067, WeightPerFoot: 1.41},
		{TradeSize: "2-1/2", NominalDiameter: 2.5, OuterDiameter: 2.875, InnerDiameter: 2.731, WeightPerFoot: 2.15},
		{TradeSize: "3", NominalDiameter: 3, OuterDiameter: 3.500, InnerDiameter: 3.356, WeightPerFoot: 2.62},
		{TradeSize: "3-1/2", NominalDiameter: 3.5, OuterDiameter: 4.000, InnerDiameter: 3.834, WeightPerFoot: 3.24},
		{TradeSize: "4", NominalDiameter: 4, OuterDiameter: 4.500, InnerDiameter: 4.334, WeightPerFoot: 3.65},
	}
}

func rmcSizes() []ConduitSize {
	return []ConduitSize{
		{TradeSize: "1/2", NominalDiameter: 0.5, OuterDiameter: 0.840, InnerDiameter: 0.632, WeightPerFoot: 0.82},
		{TradeSize: "3/4", NominalDiameter: 0.75, OuterDiameter: 1.050, InnerDiameter: 0.836, WeightPerFoot: 1.09},
		{TradeSize: "1", NominalDiameter: 1, OuterDiameter: 1.315, InnerDiameter: 1.063, WeightPerFoot: 1.61},
		{TradeSize: "1-1/4", NominalDiameter: 1.25, OuterDiameter: 1.660, InnerDiameter: 1.394, WeightPerFoot: 2.18},
		{TradeSize: "1-1/2", NominalDiameter: 1.5, OuterDiameter: 1.900, InnerDiameter: 1.624, WeightPerFoot: 2.63},
		{TradeSize: "2", NominalDiameter: 2, OuterDiameter: 2.375, InnerDiameter: 2.083, WeightPerFoot: 3.50},
		{TradeSize: "2-1/2", NominalDiameter: 2.5, OuterDiameter: 2.875, InnerDiameter: 2.489, WeightPerFoot: 5.59},
		{TradeSize: "3", NominalDiameter: 3, OuterDiameter: 3.500, InnerDiameter: 3.090, WeightPerFoot: 7.27},
		{TradeSize: "4", NominalDiameter: 4, OuterDiameter: 4.500, InnerDiameter: 4.050, WeightPerFoot: 10.30},
	}
}

func pvc40Sizes() []ConduitSize {
	return []ConduitSize{
		{TradeSize: "1/2", NominalDiameter: 0.5, OuterDiameter: 0.840, InnerDiameter: 0.602, WeightPerFoot: 0.16},
		{TradeSize: "3/4", NominalDiameter: 0.75, OuterDiameter: 1.050, InnerDiameter: 0.804, WeightPerFoot: 0.22},
		{TradeSize: "1", NominalDiameter: 1, OuterDiameter: 1.315, InnerDiameter: 1.029, WeightPerFoot: 0.32},
		{TradeSize: "1-1/4", NominalDiameter: 1.25, OuterDiameter: 1.660, InnerDiameter: 1.360, WeightPerFoot: 0.43},
		{TradeSize: "1-1/2", NominalDiameter: 1.5, OuterDiameter: 1.900, InnerDiameter: 1.590, WeightPerFoot: 0.51},
		{TradeSize: "2", NominalDiameter: 2, OuterDiameter: 2.375, InnerDiameter: 2.047, WeightPerFoot: 0.68},
		{TradeSize: "2-1/2", NominalDiameter: 2.5, OuterDiameter: 2.875, InnerDiameter: 2.445, WeightPerFoot: 1.07},
		{TradeSize: "3", NominalDiameter: 3, OuterDiameter: 3.500, InnerDiameter: 3.042, WeightPerFoot: 1.40},
		{TradeSize: "4", NominalDiameter: 4, OuterDiameter: 4.500, InnerDiameter: 3.998, WeightPerFoot: 2.01},
	}
}

// EMT returns the default EMT size table.
func EMT() ConduitSizeSettings { return DefaultSettings(MaterialEMT) }

// DefaultSettings returns the built-in table for a material. Unknown materials get
// an empty table tagged with the material so callers can fall back explicitly.
func DefaultSettings(m Material) ConduitSizeSettings {
	s := ConduitSizeSettings{Material: m, MinLengthInches: DefaultMinLengthInches}
	switch m {
	case MaterialEMT:
		s.Sizes = emtSizes()
	case MaterialRMC:
		s.Sizes = rmcSizes()
	case MaterialPVC40:
		s.Sizes = pvc40Sizes()
	}
	return s
}

// Materials lists the materials with built-in tables.
func Materials() []Material { return []Material{MaterialEMT, MaterialRMC, MaterialPVC40} }
