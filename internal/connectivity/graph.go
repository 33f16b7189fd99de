/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package connectivity

import (
	"sort"

	"conduitroute/internal/geom"
)

// Handle addresses a connector slot in a Graph.
type Handle int32

// NoHandle marks an absent handle (unregistered or unconnected).
const NoHandle Handle = -1

// Connector is a directional endpoint owned by exactly one segment or fitting.
// ConnectedToID is filled from the graph when the connector is read back.
type Connector struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"ownerId"`
	Origin        geom.XYZ `json:"origin"`
	Direction     geom.XYZ `json:"direction"`
	ConnectedToID string   `json:"connectedToId,omitempty"`
}

func (c Connector) IsConnected() bool { return c.ConnectedToID != "" }

type slot struct {
	c    Connector
	peer Handle
	live bool
}

// Graph is the registry of all connectors and the only holder of connection state.
// It is not safe for concurrent use; callers serialize access per model.
type Graph struct {
	slots []slot
	index map[string]Handle
	free  []Handle
}

func NewGraph() *Graph {
	return &Graph{index: make(map[string]Handle)}
}

// Register adds c, or overwrites the connector with the same id. An overwritten
// connector loses its connection (both ends). The incoming ConnectedToID is ignored;
// use Connect to link.
func (g *Graph) Register(c Connector) Handle {
	c.ConnectedToID = ""
	if h, ok := g.index[c.ID]; ok {
		g.unlink(h)
		g.slots[h].c = c
		return h
	}
	var h Handle
	if n := len(g.free); n > 0 {
		h = g.free[n-1]
		g.free = g.free[:n-1]
		g.slots[h] = slot{c: c, peer: NoHandle, live: true}
	} else {
		h = Handle(len(g.slots))
		g.slots = append(g.slots, slot{c: c, peer: NoHandle, live: true})
	}
	g.index[c.ID] = h
	return h
}

// Unregister disconnects and removes the connector. Unknown ids return false.
func (g *Graph) Unregister(id string) bool {
	h, ok := g.index[id]
	if !ok {
		return false
	}
	g.unlink(h)
	g.slots[h] = slot{peer: NoHandle}
	delete(g.index, id)
	g.free = append(g.free, h)
	return true
}

// Connect links two connectors symmetrically. It returns false when either id is
// unknown or both ids are the same. Coincidence of the origins is not checked.
// Any existing link on either end is dropped first.
func (g *Graph) Connect(idA, idB string) bool {
	a, okA := g.index[idA]
	b, okB := g.index[idB]
	if !okA || !okB || a == b {
		return false
	}
	g.link(a, b)
	return true
}

// Disconnect clears the connection on id and on its peer. Calling it on an open
// connector is a no-op; the result reports whether a link was removed.
func (g *Graph) Disconnect(id string) bool {
	h, ok := g.index[id]
	if !ok {
		return false
	}
	return g.unlink(h)
}

// AutoConnect links open connectors with different owners whose origins are within
// tolerance. Each connector pairs with the first open partner found, in registration
// order. It returns the number of new connections.
func (g *Graph) AutoConnect(tolerance float64) int {
	open := g.openHandles()
	made := 0
	for i, a := range open {
		if g.slots[a].peer != NoHandle {
			continue
		}
		for _, b := range open[i+1:] {
			if g.slots[b].peer != NoHandle {
				continue
			}
			ca, cb := g.slots[a].c, g.slots[b].c
			if ca.OwnerID == cb.OwnerID {
				continue
			}
			if ca.Origin.DistanceTo(cb.Origin) <= tolerance {
				g.link(a, b)
				made++
				break
			}
		}
	}
	return made
}

func (g *Graph) link(a, b Handle) {
	g.unlink(a)
	g.unlink(b)
	g.slots[a].peer = b
	g.slots[b].peer = a
}

func (g *Graph) unlink(h Handle) bool {
	p := g.slots[h].peer
	if p == NoHandle {
		return false
	}
	g.slots[h].peer = NoHandle
	if g.slots[p].peer == h {
		g.slots[p].peer = NoHandle
	}
	return true
}

func (g *Graph) openHandles() []Handle {
	var out []Handle
	for i := range g.slots {
		if g.slots[i].live && g.slots[i].peer == NoHandle {
			out = append(out, Handle(i))
		}
	}
	return out
}

func (g *Graph) read(h Handle) Connector {
	s := g.slots[h]
	c := s.c
	if s.peer != NoHandle {
		c.ConnectedToID = g.slots[s.peer].c.ID
	}
	return c
}

// Connector returns the current state of a connector by id.
func (g *Graph) Connector(id string) (Connector, bool) {
	h, ok := g.index[id]
	if !ok {
		return Connector{}, false
	}
	return g.read(h), true
}

// ConnectorAt returns the connector stored at h.
func (g *Graph) ConnectorAt(h Handle) (Connector, bool) {
	if h < 0 || int(h) >= len(g.slots) || !g.slots[h].live {
		return Connector{}, false
	}
	return g.read(h), true
}

// HandleOf returns the handle registered for id.
func (g *Graph) HandleOf(id string) (Handle, bool) {
	h, ok := g.index[id]
	return h, ok
}

// Connectors returns every registered connector in handle order.
func (g *Graph) Connectors() []Connector {
	out := make([]Connector, 0, len(g.index))
	for i := range g.slots {
		if g.slots[i].live {
			out = append(out, g.read(Handle(i)))
		}
	}
	return out
}

// Open returns the unconnected connectors in handle order.
func (g *Graph) Open() []Connector {
	hs := g.openHandles()
	out := make([]Connector, 0, len(hs))
	for _, h := range hs {
		out = append(out, g.read(h))
	}
	return out
}

func (g *Graph) Len() int { return len(g.index) }

// Connections lists every link once as an ordered id pair, sorted for stable output.
func (g *Graph) Connections() [][2]string {
	var out [][2]string
	for i := range g.slots {
		s := g.slots[i]
		if !s.live || s.peer == NoHandle || Handle(i) > s.peer {
			continue
		}
		out = append(out, [2]string{s.c.ID, g.slots[s.peer].c.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// ConnectedOwners returns the owners directly linked to any connector of owner.
func (g *Graph) ConnectedOwners(owner string) []string {
	seen := map[string]bool{}
	var out []string
	for i := range g.slots {
		s := g.slots[i]
		if !s.live || s.c.OwnerID != owner || s.peer == NoHandle {
			continue
		}
		o := g.slots[s.peer].c.OwnerID
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out
}

// Reachable returns every owner reachable from start through connections, start included.
func (g *Graph) Reachable(start string) map[string]bool {
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, o := range g.ConnectedOwners(cur) {
			if !visited[o] {
				visited[o] = true
				queue = append(queue, o)
			}
		}
	}
	return visited
}
