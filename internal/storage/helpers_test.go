/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"testing"

	"conduitroute/internal/domain"
	"conduitroute/internal/geom"
	"conduitroute/internal/store"
)

// sampleStore returns a store holding one L-shaped run CR-001.
func sampleStore(t *testing.T) *store.ModelStore {
	t.Helper()
	st := store.New(domain.DefaultSettings())
	segs := []*domain.ConduitSegment{
		{ID: "s1", Start: geom.P(0, 0, 0), End: geom.P(10, 0, 0)},
		{ID: "s2", Start: geom.P(10, 0, 0), End: geom.P(10, 10, 0)},
	}
	if _, err := st.CreateRunFromSegments(segs, ""); err != nil {
		t.Fatalf("CreateRunFromSegments: %v", err)
	}
	return st
}
