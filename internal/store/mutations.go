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

	"github.com/google/uuid"

	"conduitroute/internal/connectivity"
	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
)

// AddType registers or replaces a conduit type.
func (m *ModelStore) AddType(t *domain.ConduitType) (Mutation, error) {
	if t == nil || t.ID == "" {
		return Mutation{}, fmt.Errorf("%w: conduit type needs an id", ErrInvalidEntity)
	}
	m.types[t.ID] = t
	return Mutation{EntityID: t.ID}, nil
}

// AddSegment registers a segment and its two endpoint connectors.
// An empty id is replaced by a fresh UUID.
func (m *ModelStore) AddSegment(s *domain.ConduitSegment) (Mutation, error) {
	if s == nil {
		return Mutation{}, fmt.Errorf("%w: nil segment", ErrInvalidEntity)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, dup := m.segments[s.ID]; dup {
		return Mutation{}, fmt.Errorf("%w: duplicate segment id %q", ErrInvalidEntity, s.ID)
	}
	s.InitializeConnectors(m.graph)
	m.segments[s.ID] = s
	return Mutation{EntityID: s.ID, Registered: connectorIDs(m.graph, &s.Connectors)}, nil
}

// AddFitting registers a fitting and one connector per port.
func (m *ModelStore) AddFitting(f *domain.ConduitFitting) (Mutation, error) {
	if f == nil {
		return Mutation{}, fmt.Errorf("%w: nil fitting", ErrInvalidEntity)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if _, dup := m.fittings[f.ID]; dup {
		return Mutation{}, fmt.Errorf("%w: duplicate fitting id %q", ErrInvalidEntity, f.ID)
	}
	f.InitializeConnectors(m.graph)
	m.fittings[f.ID] = f
	return Mutation{EntityID: f.ID, Registered: connectorIDs(m.graph, &f.Connectors)}, nil
}

// AddRun registers a run. Its segment and fitting ids are not checked.
func (m *ModelStore) AddRun(r *domain.ConduitRun) (Mutation, error) {
	if r == nil {
		return Mutation{}, fmt.Errorf("%w: nil run", ErrInvalidEntity)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RunID == "" {
		r.RunID = m.NextRunID()
	}
	m.runs[r.ID] = r
	return Mutation{EntityID: r.ID}, nil
}

// RemoveSegment disconnects and unregisters the segment's connectors, then drops
// the segment and its id from every run.
func (m *ModelStore) RemoveSegment(id string) (Mutation, error) {
	s, ok := m.segments[id]
	if !ok {
		return Mutation{}, fmt.Errorf("%w: segment %q", ErrNotFound, id)
	}
	mu := Mutation{EntityID: id, Unregistered: connectorIDs(m.graph, &s.Connectors)}
	s.Connectors.Release(m.graph)
	delete(m.segments, id)
	for _, r := range m.runs {
		r.SegmentIDs = without(r.SegmentIDs, id)
	}
	return mu, nil
}

// RemoveFitting is the fitting counterpart of RemoveSegment.
func (m *ModelStore) RemoveFitting(id string) (Mutation, error) {
	f, ok := m.fittings[id]
	if !ok {
		return Mutation{}, fmt.Errorf("%w: fitting %q", ErrNotFound, id)
	}
	mu := Mutation{EntityID: id, Unregistered: connectorIDs(m.graph, &f.Connectors)}
	f.Connectors.Release(m.graph)
	delete(m.fittings, id)
	for _, r := range m.runs {
		r.FittingIDs = without(r.FittingIDs, id)
	}
	return mu, nil
}

// RemoveRun drops a run. With cascade its segments and fittings go too.
func (m *ModelStore) RemoveRun(id string, cascade bool) (Mutation, error) {
	r, ok := m.Run(id)
	if !ok {
		return Mutation{}, fmt.Errorf("%w: run %q", ErrNotFound, id)
	}
	delete(m.runs, r.ID)
	mu := Mutation{EntityID: r.ID}
	if !cascade {
		return mu, nil
	}
	for _, sid := range r.SegmentIDs {
		if sm, err := m.RemoveSegment(sid); err == nil {
			mu.Unregistered = append(mu.Unregistered, sm.Unregistered...)
		}
	}
	for _, fid := range r.FittingIDs {
		if fm, err := m.RemoveFitting(fid); err == nil {
			mu.Unregistered = append(mu.Unregistered, fm.Unregistered...)
		}
	}
	return mu, nil
}

// MoveSegment sets new endpoints and re-derives the connectors. Existing links of
// the segment are dropped; call Reconnect to pick up new neighbours.
func (m *ModelStore) MoveSegment(id string, start, end geom.XYZ) (Mutation, error) {
	s, ok := m.segments[id]
	if !ok {
		return Mutation{}, fmt.Errorf("%w: segment %q", ErrNotFound, id)
	}
	mu := Mutation{EntityID: id, Unregistered: connectorIDs(m.graph, &s.Connectors)}
	s.Start, s.End = start, end
	s.InitializeConnectors(m.graph)
	mu.Registered = connectorIDs(m.graph, &s.Connectors)
	return mu, nil
}

// Reconnect runs AutoConnect at the configured tolerance.
func (m *ModelStore) Reconnect() int {
	return m.graph.AutoConnect(m.settings.ConnectionTolerance)
}

func connectorIDs(g *connectivity.Graph, mgr *connectivity.Manager) []string {
	cs := mgr.Connectors(g)
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
