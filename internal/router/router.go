/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package router finds obstacle-free paths on a uniform 3D voxel grid with A*.
//
// Cells are 6-connected and every step costs one voxel, so the Manhattan
// heuristic is admissible and consistent and returned paths have the minimum
// number of steps. Endpoints are kept exactly as given; only interior points
// are grid-snapped, and straight runs of cells are collapsed afterwards.
package router

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"

	"conduitroute/internal/geom"
	applog "conduitroute/internal/log"
)

// DefaultMaxIterations caps node expansions per search.
const DefaultMaxIterations = 100_000

// ColinearTolerance is the turn angle in radians below which an interior point is dropped.
const ColinearTolerance = 0.01

var ErrInvalidVoxel = errors.New("router: voxel size must be positive")

// Stats describes the most recent search.
type Stats struct {
	Expansions int
	Pushes     int
	Found      bool
	Budget     bool // iteration budget exhausted
}

// Router searches one bounded region. It is not safe for concurrent use.
type Router struct {
	bounds    geom.ObstacleBox
	voxel     float64
	obstacles []geom.ObstacleBox
	maxIter   int
	log       *slog.Logger
	stats     Stats
}

// Option configures a Router.
type Option func(*Router)

func WithMaxIterations(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxIter = n
		}
	}
}

func WithObstacles(obs ...geom.ObstacleBox) Option {
	return func(r *Router) { r.obstacles = append(r.obstacles, obs...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns a router over bounds with the given voxel edge length.
func New(bounds geom.ObstacleBox, voxelSize float64, opts ...Option) (*Router, error) {
	if voxelSize <= 0 {
		return nil, ErrInvalidVoxel
	}
	r := &Router{
		bounds:  bounds,
		voxel:   voxelSize,
		maxIter: DefaultMaxIterations,
		log:     applog.WithComponent("router"),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Stats returns counters from the last FindPath call.
func (r *Router) Stats() Stats { return r.stats }

type cell struct{ x, y, z int }

var neighbours = [6]cell{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

func (r *Router) toCell(p geom.XYZ) cell {
	d := p.Sub(r.bounds.Min).Scale(1 / r.voxel)
	return cell{roundInt(d.X), roundInt(d.Y), roundInt(d.Z)}
}

func (r *Router) toWorld(c cell) geom.XYZ {
	return r.bounds.Min.Add(geom.P(float64(c.x), float64(c.y), float64(c.z)).Scale(r.voxel))
}

func (r *Router) blocked(c cell) bool {
	w := r.toWorld(c)
	if !r.bounds.Contains(w) {
		return true
	}
	for _, o := range r.obstacles {
		if o.Contains(w) {
			return true
		}
	}
	return false
}

func (r *Router) heuristic(a, b cell) float64 {
	return float64(abs(a.x-b.x)+abs(a.y-b.y)+abs(a.z-b.z)) * r.voxel
}

// FindPath returns a path from start to end, or false when none was found
// within the iteration budget or before ctx is done. The start and goal cells
// are never treated as blocked.
func (r *Router) FindPath(ctx context.Context, start, end geom.XYZ) ([]geom.XYZ, bool) {
	r.stats = Stats{}
	l := applog.WithOperation(r.log, "find_path")
	from, goal := r.toCell(start), r.toCell(end)
	if from == goal {
		r.stats.Found = true
		return []geom.XYZ{start, end}, true
	}

	g := map[cell]float64{from: 0}
	came := map[cell]cell{}
	closed := map[cell]bool{}
	open := &openSet{}
	heap.Push(open, &node{c: from, g: 0, f: r.heuristic(from, goal)})
	r.stats.Pushes++

	for open.Len() > 0 {
		if r.stats.Expansions >= r.maxIter {
			r.stats.Budget = true
			l.Debug("iteration budget exhausted", slog.Int("limit", r.maxIter))
			return nil, false
		}
		if r.stats.Expansions&1023 == 0 && ctx.Err() != nil {
			l.Debug("search cancelled", slog.Any("err", ctx.Err()))
			return nil, false
		}
		cur := heap.Pop(open).(*node)
		if closed[cur.c] {
			continue
		}
		if cur.c == goal {
			r.stats.Found = true
			return r.reconstruct(came, goal, start, end), true
		}
		closed[cur.c] = true
		r.stats.Expansions++

		for _, d := range neighbours {
			n := cell{cur.c.x + d.x, cur.c.y + d.y, cur.c.z + d.z}
			if closed[n] || (n != goal && r.blocked(n)) {
				continue
			}
			tg := cur.g + r.voxel
			if old, seen := g[n]; seen && tg >= old {
				continue
			}
			g[n] = tg
			came[n] = cur.c
			h := r.heuristic(n, goal)
			heap.Push(open, &node{c: n, g: tg, f: tg + h, h: h, seq: r.stats.Pushes})
			r.stats.Pushes++
		}
	}
	l.Debug("open set exhausted", slog.Int("expansions", r.stats.Expansions))
	return nil, false
}

func (r *Router) reconstruct(came map[cell]cell, goal cell, start, end geom.XYZ) []geom.XYZ {
	var cells []cell
	for c, ok := came[goal]; ok; c, ok = came[c] {
		cells = append(cells, c)
	}
	// cells runs goal-1 … start; drop the start cell and reverse
	pts := make([]geom.XYZ, 0, len(cells)+1)
	pts = append(pts, start)
	for i := len(cells) - 2; i >= 0; i-- {
		pts = append(pts, r.toWorld(cells[i]))
	}
	pts = append(pts, end)
	return PruneColinear(pts, ColinearTolerance)
}

// PruneColinear removes interior points where the path turns by less than tol radians.
func PruneColinear(pts []geom.XYZ, tol float64) []geom.XYZ {
	if len(pts) <= 2 {
		return pts
	}
	out := []geom.XYZ{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		in := pts[i].Sub(out[len(out)-1])
		next := pts[i+1].Sub(pts[i])
		if in.IsZero() || next.IsZero() {
			continue
		}
		if geom.AngleBetween(in, next) > tol {
			out = append(out, pts[i])
		}
	}
	return append(out, pts[len(pts)-1])
}

func roundInt(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
