/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package schedule derives fabrication data for runs: stick cut lists and
// fitting bend annotations from the bend table.
package schedule

import (
	"fmt"
	"log/slog"

	"conduitroute/internal/bend"
	"conduitroute/internal/catalog"
	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
	applog "conduitroute/internal/log"
	"conduitroute/internal/store"
)

// CutList is the fabrication schedule of one run.
type CutList struct {
	RunID             string                `json:"runId"`
	TradeSize         string                `json:"tradeSize"`
	Material          catalog.Material      `json:"material"`
	Sticks            []bend.OptimizedStick `json:"sticks"`
	TotalRawInches    float64               `json:"totalRawInches"`
	TotalCutInches    float64               `json:"totalCutInches"`
	TotalDeductInches float64               `json:"totalDeductInches"`
	RunLengthFeet     float64               `json:"runLengthFeet"`
	RiseDrops         []domain.RiseDropInfo `json:"riseDrops,omitempty"`
}

// BuildCutList groups the run's segments into sticks and totals them.
func BuildCutList(st *store.ModelStore, runID string, svc *bend.Service) (CutList, error) {
	run, ok := st.Run(runID)
	if !ok {
		return CutList{}, fmt.Errorf("schedule: %w: run %q", store.ErrNotFound, runID)
	}
	segs := st.RunSegments(run)
	cl := CutList{
		RunID:         run.RunID,
		TradeSize:     run.TradeSize,
		Material:      run.Material,
		Sticks:        svc.OptimizeSticks(segs, run.TradeSize),
		RunLengthFeet: run.ComputeTotalLength(st),
		RiseDrops:     domain.DetectRiseDrops(segs, geom.BasisZ),
	}
	for _, s := range cl.Sticks {
		cl.TotalRawInches += s.RawLengthInches
		cl.TotalCutInches += s.CutLengthInches
		cl.TotalDeductInches += s.TotalDeductInches
	}
	applog.WithComponent("schedule").Debug("cut list built",
		slog.String("run", cl.RunID),
		slog.Int("sticks", len(cl.Sticks)),
		slog.Float64("cut_inches", cl.TotalCutInches))
	return cl, nil
}

// AnnotateFittings fills bend radius and deduct on the run's fittings from the
// table and returns how many were annotated. Fittings without a table row keep
// their values.
func AnnotateFittings(st *store.ModelStore, runID string, svc *bend.Service) (int, error) {
	run, ok := st.Run(runID)
	if !ok {
		return 0, fmt.Errorf("schedule: %w: run %q", store.ErrNotFound, runID)
	}
	n := 0
	for _, f := range st.RunFittings(run) {
		if f.FittingType == domain.FittingCoupling || f.FittingType == domain.FittingNone {
			continue
		}
		e, ok := svc.LookupDeduct(f.TradeSize, f.AngleDegrees)
		if !ok {
			continue
		}
		f.BendRadius = e.BendRadius
		f.DeductLength = e.DeductInches
		n++
	}
	return n, nil
}
