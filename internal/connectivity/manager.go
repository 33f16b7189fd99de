/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package connectivity

import (
	"math"

	"conduitroute/internal/geom"
)

// Manager is the per-owner set of connector handles.
type Manager struct {
	OwnerID string
	handles []Handle
}

func NewManager(owner string) Manager { return Manager{OwnerID: owner} }

// Create registers a new connector for the owner and keeps its handle.
func (m *Manager) Create(g *Graph, id string, origin, direction geom.XYZ) Handle {
	h := g.Register(Connector{ID: id, OwnerID: m.OwnerID, Origin: origin, Direction: direction.Normalize()})
	m.handles = append(m.handles, h)
	return h
}

func (m *Manager) Handles() []Handle { return append([]Handle(nil), m.handles...) }
func (m *Manager) Len() int          { return len(m.handles) }

// Connectors resolves the owner's connectors against g.
func (m *Manager) Connectors(g *Graph) []Connector {
	out := make([]Connector, 0, len(m.handles))
	for _, h := range m.handles {
		if c, ok := g.ConnectorAt(h); ok && c.OwnerID == m.OwnerID {
			out = append(out, c)
		}
	}
	return out
}

// NearestUnconnected returns the open connector closest to p within tolerance.
func (m *Manager) NearestUnconnected(g *Graph, p geom.XYZ, tolerance float64) (Connector, bool) {
	best, bestD, found := Connector{}, math.Inf(1), false
	for _, c := range m.Connectors(g) {
		if c.IsConnected() {
			continue
		}
		if d := c.Origin.DistanceTo(p); d <= tolerance && d < bestD {
			best, bestD, found = c, d, true
		}
	}
	return best, found
}

// Release disconnects and unregisters every connector of the owner and returns
// how many were removed.
func (m *Manager) Release(g *Graph) int {
	n := 0
	for _, c := range m.Connectors(g) {
		if g.Unregister(c.ID) {
			n++
		}
	}
	m.handles = nil
	return n
}
