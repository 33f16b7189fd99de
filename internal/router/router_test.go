/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduitroute/internal/geom"
)

// flat returns bounds confined to the z=0 plane so searches stay two-dimensional.
func flat() geom.ObstacleBox { return geom.Box(geom.P(-2, -2, 0), geom.P(12, 12, 0)) }

func TestNewRejectsBadVoxel(t *testing.T) {
	_, err := New(flat(), 0)
	require.ErrorIs(t, err, ErrInvalidVoxel)
}

func TestSameVoxelShortCircuit(t *testing.T) {
	r, err := New(flat(), 1)
	require.NoError(t, err)
	start, end := geom.P(1, 1, 0), geom.P(1.2, 0.9, 0)
	path, ok := r.FindPath(context.Background(), start, end)
	require.True(t, ok)
	assert.Equal(t, []geom.XYZ{start, end}, path)
	assert.Zero(t, r.Stats().Expansions)

	path, ok = r.FindPath(context.Background(), start, start)
	require.True(t, ok)
	assert.Equal(t, []geom.XYZ{start, start}, path)
}

func TestStraightRunCollapses(t *testing.T) {
	r, err := New(flat(), 1)
	require.NoError(t, err)
	start, end := geom.P(0, 0, 0), geom.P(10, 0, 0)
	path, ok := r.FindPath(context.Background(), start, end)
	require.True(t, ok)
	assert.Equal(t, []geom.XYZ{start, end}, path)
	assert.True(t, r.Stats().Found)
}

func TestRoutesAroundWall(t *testing.T) {
	wall := geom.Box(geom.P(4, -3, -1), geom.P(6, 8, 1))
	r, err := New(flat(), 1, WithObstacles(wall))
	require.NoError(t, err)

	start, end := geom.P(0, 0, 0), geom.P(10, 0, 0)
	path, ok := r.FindPath(context.Background(), start, end)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(path), 4)
	assert.Equal(t, start, path[0])
	assert.Equal(t, end, path[len(path)-1])

	maxY := 0.0
	for i := 1; i < len(path); i++ {
		leg := geom.L(path[i-1], path[i])
		for k := 0; k <= 50; k++ {
			p := leg.Evaluate(float64(k) / 50)
			assert.False(t, wall.Contains(p), "leg %d passes through wall at %+v", i, p)
		}
		if path[i].Y > maxY {
			maxY = path[i].Y
		}
	}
	assert.GreaterOrEqual(t, maxY, 9.0)
}

func TestGoalInsideObstacleIsReachable(t *testing.T) {
	equipment := geom.Box(geom.P(8.6, -0.4, -1), geom.P(9.4, 0.4, 1))
	r, err := New(flat(), 1, WithObstacles(equipment))
	require.NoError(t, err)
	path, ok := r.FindPath(context.Background(), geom.P(0, 0, 0), geom.P(9, 0, 0))
	require.True(t, ok)
	assert.Equal(t, geom.P(9, 0, 0), path[len(path)-1])
}

func TestNoPathWhenSealed(t *testing.T) {
	wall := geom.Box(geom.P(4, -5, -1), geom.P(6, 15, 1))
	r, err := New(flat(), 1, WithObstacles(wall))
	require.NoError(t, err)
	path, ok := r.FindPath(context.Background(), geom.P(0, 0, 0), geom.P(10, 0, 0))
	assert.False(t, ok)
	assert.Nil(t, path)
	assert.False(t, r.Stats().Budget)
}

func TestIterationBudget(t *testing.T) {
	r, err := New(flat(), 1, WithMaxIterations(5))
	require.NoError(t, err)
	_, ok := r.FindPath(context.Background(), geom.P(0, 0, 0), geom.P(10, 10, 0))
	assert.False(t, ok)
	assert.True(t, r.Stats().Budget)
	assert.Equal(t, 5, r.Stats().Expansions)
}

func TestCancelledContext(t *testing.T) {
	r, err := New(flat(), 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := r.FindPath(ctx, geom.P(0, 0, 0), geom.P(10, 10, 0))
	assert.False(t, ok)
}

func TestPruneColinear(t *testing.T) {
	pts := []geom.XYZ{
		geom.P(0, 0, 0), geom.P(1, 0, 0), geom.P(2, 0, 0),
		geom.P(2, 1, 0), geom.P(2, 2, 0), geom.P(2, 2, 0),
	}
	assert.Equal(t, []geom.XYZ{geom.P(0, 0, 0), geom.P(2, 0, 0), geom.P(2, 2, 0)}, PruneColinear(pts, ColinearTolerance))
}
