/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"conduitroute/internal/catalog"
	"conduitroute/internal/geom"
)

const (
	DefaultConduitTypeID       = "emt-default"
	DefaultTradeSize           = "3/4"
	DefaultConnectionTolerance = 0.01 // feet
	DefaultRunIDPrefix         = "CR-"
	DefaultVoxelSize           = 0.5 // feet
)

// ConduitSettings are the project-wide routing defaults.
type ConduitSettings struct {
	DefaultConduitTypeID string           `json:"defaultConduitTypeId" yaml:"default_conduit_type_id"`
	DefaultTradeSize     string           `json:"defaultTradeSize" yaml:"default_trade_size"`
	DefaultMaterial      catalog.Material `json:"defaultMaterial" yaml:"default_material"`
	AutoInsertFittings   bool             `json:"autoInsertFittings" yaml:"auto_insert_fittings"`
	ConnectionTolerance  float64          `json:"connectionTolerance" yaml:"connection_tolerance"`
	RunIDPrefix          string           `json:"runIdPrefix" yaml:"run_id_prefix"`
}

func DefaultSettings() ConduitSettings {
	return ConduitSettings{
		DefaultConduitTypeID: DefaultConduitTypeID,
		DefaultTradeSize:     DefaultTradeSize,
		DefaultMaterial:      catalog.MaterialEMT,
		AutoInsertFittings:   true,
		ConnectionTolerance:  DefaultConnectionTolerance,
		RunIDPrefix:          DefaultRunIDPrefix,
	}
}

// RoutingDefaults is the resolved type/trade-size/material triple stamped on a run.
type RoutingDefaults struct {
	ConduitTypeID string
	TradeSize     string
	Material      catalog.Material
}

// RoutingOptions configures one auto-route call.
type RoutingOptions struct {
	RunID         string             `yaml:"run_id"`
	ConduitTypeID string             `yaml:"conduit_type_id"`
	TradeSize     string             `yaml:"trade_size"`
	Material      catalog.Material   `yaml:"material"`
	LevelID       string             `yaml:"level_id"`
	UseElevation  bool               `yaml:"use_elevation"`
	Elevation     float64            `yaml:"elevation"`
	Obstacles     []geom.ObstacleBox `yaml:"obstacles"`

	UsePathfinding bool    `yaml:"use_pathfinding"`
	VoxelSize      float64 `yaml:"voxel_size"`
	Clearance      float64 `yaml:"clearance"`
	BoundsPadding  float64 `yaml:"bounds_padding"`
	MaxIterations  int     `yaml:"max_iterations"`

	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
	Orthogonalize   bool    `yaml:"orthogonalize"`
	OrthoOnly       bool    `yaml:"ortho_only"`
}
