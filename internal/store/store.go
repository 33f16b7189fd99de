/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the conduit model: types, segments, fittings and runs plus the
// connectivity graph that links their connectors. All mutations go through the
// store so the graph never references an entity the store no longer holds.
//
// A ModelStore is single-writer. Callers serialize access.
package store

import (
	"errors"
	"sort"

	"conduitroute/internal/connectivity"
	"conduitroute/internal/domain"
)

var (
	ErrEmptySegments = errors.New("store: segment list is empty")
	ErrNotFound      = errors.New("store: entity not found")
	ErrInvalidEntity = errors.New("store: invalid entity")
)

// Mutation reports what an add or remove did to the connectivity graph.
type Mutation struct {
	EntityID     string
	Registered   []string
	Unregistered []string
}

// ModelStore is the aggregate root of a conduit model.
type ModelStore struct {
	types    map[string]*domain.ConduitType
	segments map[string]*domain.ConduitSegment
	fittings map[string]*domain.ConduitFitting
	runs     map[string]*domain.ConduitRun
	settings domain.ConduitSettings
	graph    *connectivity.Graph
}

// New returns an empty store using settings.
func New(settings domain.ConduitSettings) *ModelStore {
	return &ModelStore{
		types:    map[string]*domain.ConduitType{},
		segments: map[string]*domain.ConduitSegment{},
		fittings: map[string]*domain.ConduitFitting{},
		runs:     map[string]*domain.ConduitRun{},
		settings: settings,
		graph:    connectivity.NewGraph(),
	}
}

func (m *ModelStore) Graph() *connectivity.Graph           { return m.graph }
func (m *ModelStore) Settings() domain.ConduitSettings     { return m.settings }
func (m *ModelStore) SetSettings(s domain.ConduitSettings) { m.settings = s }

func (m *ModelStore) Type(id string) (*domain.ConduitType, bool) {
	t, ok := m.types[id]
	return t, ok
}

func (m *ModelStore) Segment(id string) (*domain.ConduitSegment, bool) {
	s, ok := m.segments[id]
	return s, ok
}

func (m *ModelStore) Fitting(id string) (*domain.ConduitFitting, bool) {
	f, ok := m.fittings[id]
	return f, ok
}

// Run looks a run up by id, then by its user-facing run id.
func (m *ModelStore) Run(id string) (*domain.ConduitRun, bool) {
	if r, ok := m.runs[id]; ok {
		return r, true
	}
	for _, r := range m.runs {
		if r.RunID == id {
			return r, true
		}
	}
	return nil, false
}

func (m *ModelStore) Types() []*domain.ConduitType       { return sorted(m.types) }
func (m *ModelStore) Segments() []*domain.ConduitSegment { return sorted(m.segments) }
func (m *ModelStore) Fittings() []*domain.ConduitFitting { return sorted(m.fittings) }
func (m *ModelStore) Runs() []*domain.ConduitRun         { return sorted(m.runs) }

// RunSegments returns the run's segments in run order, skipping ids no longer held.
func (m *ModelStore) RunSegments(r *domain.ConduitRun) []*domain.ConduitSegment {
	out := make([]*domain.ConduitSegment, 0, len(r.SegmentIDs))
	for _, id := range r.SegmentIDs {
		if s, ok := m.segments[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// RunFittings returns the run's fittings in run order.
func (m *ModelStore) RunFittings(r *domain.ConduitRun) []*domain.ConduitFitting {
	out := make([]*domain.ConduitFitting, 0, len(r.FittingIDs))
	for _, id := range r.FittingIDs {
		if f, ok := m.fittings[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

func sorted[T any](m map[string]*T) []*T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
