/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autoroute turns waypoints into a finished conduit run: optional A*
// legs around obstacles, path cleanup, segment creation and run assembly in
// the model store.
package autoroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
	applog "conduitroute/internal/log"
	"conduitroute/internal/polyline"
	"conduitroute/internal/router"
	"conduitroute/internal/store"
)

const (
	DefaultBoundsPadding = 10.0 // feet around the waypoints
	dedupeTolerance      = 1e-6
)

var (
	ErrTooFewWaypoints = errors.New("autoroute: at least two waypoints are required")
	ErrDegeneratePath  = errors.New("autoroute: waypoints collapse to a single point")
)

// Report summarizes the last Route call.
type Report struct {
	Legs       int
	Routed     int
	Fallbacks  int
	Expansions int
	Points     int
	Segments   int
}

// Router builds runs in one model store.
type Router struct {
	store *store.ModelStore
	log   *slog.Logger
	last  Report
}

func New(st *store.ModelStore) *Router {
	return &Router{store: st, log: applog.WithComponent("autoroute")}
}

// LastReport returns diagnostics of the most recent Route call.
func (r *Router) LastReport() Report { return r.last }

// Route creates a run through waypoints. A leg the pathfinder cannot solve is
// drawn straight instead; only cancellation or invalid input abort the run.
func (r *Router) Route(ctx context.Context, waypoints []geom.XYZ, opts domain.RoutingOptions) (*domain.ConduitRun, error) {
	r.last = Report{}
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}
	l := applog.WithOperation(r.log, "route")

	pts := append([]geom.XYZ(nil), waypoints...)
	if opts.UseElevation {
		for i := range pts {
			pts[i].Z = opts.Elevation
		}
	}

	path := pts
	if opts.UsePathfinding {
		var err error
		if path, err = r.pathfind(ctx, pts, opts, l); err != nil {
			return nil, err
		}
	}

	path = polyline.DedupePoints(path, dedupeTolerance)
	if opts.SimplifyEpsilon > 0 {
		path = polyline.RamerDouglasPeucker(path, opts.SimplifyEpsilon)
	}
	if opts.Orthogonalize {
		path = polyline.Orthogonalize(path, opts.OrthoOnly)
	}
	if len(path) < 2 {
		return nil, ErrDegeneratePath
	}
	r.last.Points = len(path)

	tradeSize := opts.TradeSize
	if tradeSize == "" {
		tradeSize = r.store.Settings().DefaultTradeSize
	}
	segs := polyline.CreateSegmentsFromPath(path, tradeSize, opts.LevelID)
	for _, s := range segs {
		s.ConduitTypeID = opts.ConduitTypeID
		s.Material = opts.Material
	}
	r.last.Segments = len(segs)

	run, err := r.store.CreateRunFromSegments(segs, opts.RunID)
	if err != nil {
		return nil, fmt.Errorf("autoroute: %w", err)
	}
	l.Info("run routed",
		slog.String("run", run.RunID),
		slog.Int("segments", len(run.SegmentIDs)),
		slog.Int("fittings", len(run.FittingIDs)),
		slog.Int("fallbacks", r.last.Fallbacks))
	return run, nil
}

func (r *Router) pathfind(ctx context.Context, pts []geom.XYZ, opts domain.RoutingOptions, l *slog.Logger) ([]geom.XYZ, error) {
	voxel := opts.VoxelSize
	if voxel <= 0 {
		voxel = domain.DefaultVoxelSize
	}
	padding := opts.BoundsPadding
	if padding <= 0 {
		padding = DefaultBoundsPadding
	}
	obstacles := make([]geom.ObstacleBox, len(opts.Obstacles))
	for i, o := range opts.Obstacles {
		obstacles[i] = o.Expand(opts.Clearance)
	}
	pf, err := router.New(geom.BoxAround(pts, padding), voxel,
		router.WithObstacles(obstacles...),
		router.WithMaxIterations(opts.MaxIterations),
		router.WithLogger(r.log))
	if err != nil {
		return nil, err
	}

	out := []geom.XYZ{pts[0]}
	for i := 1; i < len(pts); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.last.Legs++
		leg, ok := pf.FindPath(ctx, pts[i-1], pts[i])
		r.last.Expansions += pf.Stats().Expansions
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r.last.Fallbacks++
			l.Warn("no path found, using direct leg", slog.Int("leg", i), slog.Any("from", pts[i-1]), slog.Any("to", pts[i]))
			out = append(out, pts[i])
			continue
		}
		r.last.Routed++
		out = append(out, leg[1:]...)
	}
	return out, nil
}
