/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"conduitroute/internal/catalog"
	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
	applog "conduitroute/internal/log"
)

// ResolveRoutingDefaults turns a requested type/trade size into a valid pair.
// The type falls back to the settings default, then to any registered type, then
// to a newly registered default type. The trade size falls back to the type's
// first size, then to the settings default. Material always follows the type.
func (m *ModelStore) ResolveRoutingDefaults(typeID, tradeSize string, material catalog.Material) domain.RoutingDefaults {
	l := applog.WithOperation(applog.WithComponent("store"), "resolve_defaults")
	t := m.resolveType(typeID, l)

	ts := catalog.NormalizeTradeSize(tradeSize)
	if !t.Sizes.Contains(ts) {
		if first, ok := t.Sizes.First(); ok {
			ts = first
		} else {
			ts = m.settings.DefaultTradeSize
		}
		if tradeSize != "" {
			l.Debug("trade size not in type table", slog.String("requested", tradeSize), slog.String("resolved", ts), slog.String("type", t.ID))
		}
	}

	mat := t.Material
	if mat == "" {
		mat = material
	}
	if mat == "" {
		mat = m.settings.DefaultMaterial
	}
	return domain.RoutingDefaults{ConduitTypeID: t.ID, TradeSize: ts, Material: mat}
}

func (m *ModelStore) resolveType(typeID string, l *slog.Logger) *domain.ConduitType {
	if t, ok := m.types[typeID]; ok {
		return t
	}
	if t, ok := m.types[m.settings.DefaultConduitTypeID]; ok {
		if typeID != "" {
			l.Debug("unknown conduit type, using settings default", slog.String("requested", typeID), slog.String("resolved", t.ID))
		}
		return t
	}
	if all := m.Types(); len(all) > 0 {
		l.Debug("using first registered conduit type", slog.String("requested", typeID), slog.String("resolved", all[0].ID))
		return all[0]
	}
	t := domain.NewDefaultConduitType(m.settings.DefaultConduitTypeID)
	m.types[t.ID] = t
	l.Info("registered default conduit type", slog.String("id", t.ID))
	return t
}

// CreateRunFromSegments registers segments as one run. The first segment's
// type, trade size and material are resolved and stamped on every segment.
// When the type uses fittings and auto-insertion is on, a fitting is placed at
// each angled junction and linked to both neighbours. AutoConnect then links
// any remaining coincident endpoints.
//
// Run creation is not atomic: segments registered before an error stay in the store.
func (m *ModelStore) CreateRunFromSegments(segments []*domain.ConduitSegment, runID string) (*domain.ConduitRun, error) {
	if len(segments) == 0 {
		return nil, ErrEmptySegments
	}
	l := applog.WithOperation(applog.WithComponent("store"), "create_run")

	first := segments[0]
	if first == nil {
		return nil, fmt.Errorf("%w: nil segment", ErrInvalidEntity)
	}
	d := m.ResolveRoutingDefaults(first.ConduitTypeID, first.TradeSize, first.Material)
	t := m.types[d.ConduitTypeID]
	size, sized := t.Sizes.Lookup(d.TradeSize)

	run := &domain.ConduitRun{
		ID:            uuid.NewString(),
		RunID:         runID,
		ConduitTypeID: d.ConduitTypeID,
		TradeSize:     d.TradeSize,
		Material:      d.Material,
		LevelID:       first.LevelID,
		SegmentIDs:    make([]string, 0, len(segments)),
		FittingIDs:    []string{},
	}

	for i, s := range segments {
		if s == nil {
			return nil, fmt.Errorf("%w: nil segment at %d", ErrInvalidEntity, i)
		}
		s.ConduitTypeID, s.TradeSize, s.Material = d.ConduitTypeID, d.TradeSize, d.Material
		if sized {
			s.Diameter = size.OuterDiameterFeet()
		}
		if err := t.Sizes.ValidateLength(s.Length()); err != nil {
			l.Warn("segment shorter than minimum length", slog.String("segment", s.ID), slog.Any("err", err))
		}
		if _, err := m.AddSegment(s); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		run.SegmentIDs = append(run.SegmentIDs, s.ID)
	}

	if t.IsWithFitting && m.settings.AutoInsertFittings {
		for i := 0; i+1 < len(segments); i++ {
			f, err := m.insertJunctionFitting(t, segments[i], segments[i+1], d.TradeSize, l)
			if err != nil {
				return nil, fmt.Errorf("create run: %w", err)
			}
			if f != nil {
				run.FittingIDs = append(run.FittingIDs, f.ID)
			}
		}
	}

	linked := m.Reconnect()
	if _, err := m.AddRun(run); err != nil {
		return nil, err
	}
	l.Debug("run created",
		slog.String("run", run.RunID),
		slog.Int("segments", len(run.SegmentIDs)),
		slog.Int("fittings", len(run.FittingIDs)),
		slog.Int("autoconnected", linked))
	return run, nil
}

// insertJunctionFitting places the fitting for the a→b junction, or returns nil
// when neither the type's rules nor the fallback call for one.
func (m *ModelStore) insertJunctionFitting(t *domain.ConduitType, a, b *domain.ConduitSegment, tradeSize string, l *slog.Logger) (*domain.ConduitFitting, error) {
	angle := geom.AngleBetweenDegrees(a.Direction(), b.Direction())
	ft, ok := t.SelectFitting(angle)
	if !ok {
		ft, ok = domain.FallbackFitting(angle)
		if ok {
			l.Debug("no fitting rule matched, using fallback", slog.Float64("angle", angle), slog.String("fitting", string(ft)))
		}
	}
	if !ok || ft == domain.FittingNone {
		return nil, nil
	}
	f := &domain.ConduitFitting{
		FittingType:  ft,
		Location:     a.End,
		AngleDegrees: geom.Round(angle, 6),
		TradeSize:    tradeSize,
		SegmentIDs:   []string{a.ID, b.ID},
		Ports:        domain.JunctionPorts(a.End, a.Direction(), b.Direction()),
	}
	if _, err := m.AddFitting(f); err != nil {
		return nil, err
	}
	m.graph.Connect(a.EndConnectorID(), f.PortConnectorID(0))
	m.graph.Connect(f.PortConnectorID(1), b.StartConnectorID())
	return f, nil
}

// NextRunID returns the lowest unused "<prefix>NNN" run id.
func (m *ModelStore) NextRunID() string {
	prefix := m.settings.RunIDPrefix
	if prefix == "" {
		prefix = domain.DefaultRunIDPrefix
	}
	used := map[int]bool{}
	for _, r := range m.runs {
		if n, err := strconv.Atoi(strings.TrimPrefix(r.RunID, prefix)); err == nil && strings.HasPrefix(r.RunID, prefix) {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("%s%03d", prefix, n)
}

// IsRunContinuous reports whether every segment of the run can be reached from
// the first one through connector links and owner bodies.
func (m *ModelStore) IsRunContinuous(runID string) (bool, error) {
	r, ok := m.Run(runID)
	if !ok {
		return false, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	segs := m.RunSegments(r)
	if len(segs) <= 1 {
		return true, nil
	}
	seen := m.graph.Reachable(segs[0].ID)
	for _, s := range segs {
		if !seen[s.ID] {
			return false, nil
		}
	}
	return true, nil
}

// ShortSegments lists the ids of run segments shorter than the minimum length
// of the run's conduit type.
func (m *ModelStore) ShortSegments(runID string) ([]string, error) {
	r, ok := m.Run(runID)
	if !ok {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	t, ok := m.types[r.ConduitTypeID]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, s := range m.RunSegments(r) {
		if errors.Is(t.Sizes.ValidateLength(s.Length()), catalog.ErrTooShort) {
			out = append(out, s.ID)
		}
	}
	return out, nil
}

// RiseDrops reports the vertical segments of a run.
func (m *ModelStore) RiseDrops(runID string, up geom.XYZ) ([]domain.RiseDropInfo, error) {
	r, ok := m.Run(runID)
	if !ok {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return domain.DetectRiseDrops(m.RunSegments(r), up), nil
}
