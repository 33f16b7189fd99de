/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"fmt"

	"conduitroute/internal/connectivity"
	"conduitroute/internal/domain"
)

// SnapshotVersion is bumped whenever the snapshot shape changes.
const SnapshotVersion = 1

// Snapshot is the logical, serializable state of a store. Connections are
// listed once per link as connector id pairs.
type Snapshot struct {
	Version     int                      `json:"version"`
	Settings    domain.ConduitSettings   `json:"settings"`
	Types       []*domain.ConduitType    `json:"types"`
	Segments    []*domain.ConduitSegment `json:"segments"`
	Fittings    []*domain.ConduitFitting `json:"fittings"`
	Runs        []*domain.ConduitRun     `json:"runs"`
	Connections [][2]string              `json:"connections"`
}

// Snapshot copies the store's entities; later edits to the store do not leak into it.
func (m *ModelStore) Snapshot() Snapshot {
	snap := Snapshot{Version: SnapshotVersion, Settings: m.settings, Connections: m.graph.Connections()}
	for _, t := range m.Types() {
		snap.Types = append(snap.Types, t.Clone())
	}
	for _, s := range m.Segments() {
		c := *s
		c.Connectors = connectivity.Manager{}
		snap.Segments = append(snap.Segments, &c)
	}
	for _, f := range m.Fittings() {
		c := *f
		c.SegmentIDs = append([]string(nil), f.SegmentIDs...)
		c.Ports = append([]domain.Port(nil), f.Ports...)
		c.Connectors = connectivity.Manager{}
		snap.Fittings = append(snap.Fittings, &c)
	}
	for _, r := range m.Runs() {
		c := *r
		c.SegmentIDs = append([]string(nil), r.SegmentIDs...)
		c.FittingIDs = append([]string(nil), r.FittingIDs...)
		snap.Runs = append(snap.Runs, &c)
	}
	return snap
}

// Restore builds a store from a snapshot, re-registering every connector and
// re-linking the recorded connections.
func Restore(snap Snapshot) (*ModelStore, error) {
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d is newer than %d", ErrInvalidEntity, snap.Version, SnapshotVersion)
	}
	m := New(snap.Settings)
	for _, t := range snap.Types {
		if _, err := m.AddType(t.Clone()); err != nil {
			return nil, err
		}
	}
	for _, s := range snap.Segments {
		c := *s
		if _, err := m.AddSegment(&c); err != nil {
			return nil, err
		}
	}
	for _, f := range snap.Fittings {
		c := *f
		if _, err := m.AddFitting(&c); err != nil {
			return nil, err
		}
	}
	for _, r := range snap.Runs {
		c := *r
		if _, err := m.AddRun(&c); err != nil {
			return nil, err
		}
	}
	for _, p := range snap.Connections {
		if !m.graph.Connect(p[0], p[1]) {
			return nil, fmt.Errorf("%w: connection %s <-> %s references unknown connector", ErrInvalidEntity, p[0], p[1])
		}
	}
	return m, nil
}
