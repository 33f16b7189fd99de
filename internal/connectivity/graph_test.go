/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package connectivity

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduitroute/internal/geom"
)

func conn(id, owner string, x, y, z float64) Connector {
	return Connector{ID: id, OwnerID: owner, Origin: geom.P(x, y, z), Direction: geom.BasisX}
}

func TestConnectIsSymmetric(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a", "s1", 0, 0, 0))
	g.Register(conn("b", "s2", 5, 0, 0))

	require.True(t, g.Connect("a", "b"))
	a, _ := g.Connector("a")
	b, _ := g.Connector("b")
	assert.Equal(t, "b", a.ConnectedToID)
	assert.Equal(t, "a", b.ConnectedToID)

	assert.False(t, g.Connect("a", "missing"))
	assert.False(t, g.Connect("a", "a"))
}

func TestReconnectDropsPreviousPeer(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a", "s1", 0, 0, 0))
	g.Register(conn("b", "s2", 0, 0, 0))
	g.Register(conn("c", "s3", 0, 0, 0))
	require.True(t, g.Connect("a", "b"))
	require.True(t, g.Connect("a", "c"))

	b, _ := g.Connector("b")
	c, _ := g.Connector("c")
	assert.False(t, b.IsConnected(), "old peer must be released")
	assert.Equal(t, "a", c.ConnectedToID)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a", "s1", 0, 0, 0))
	g.Register(conn("b", "s2", 0, 0, 0))
	g.Connect("a", "b")

	assert.True(t, g.Disconnect("b"))
	assert.False(t, g.Disconnect("b"))
	assert.False(t, g.Disconnect("a"))
	a, _ := g.Connector("a")
	assert.False(t, a.IsConnected())
	assert.Len(t, g.Open(), 2)
}

func TestUnregisterClearsPeer(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a", "s1", 0, 0, 0))
	g.Register(conn("b", "s2", 0, 0, 0))
	g.Connect("a", "b")

	require.True(t, g.Unregister("a"))
	assert.False(t, g.Unregister("a"))
	b, ok := g.Connector("b")
	require.True(t, ok)
	assert.False(t, b.IsConnected())
	assert.Equal(t, 1, g.Len())

	// freed slot is reused
	h := g.Register(conn("z", "s9", 1, 1, 1))
	got, ok := g.ConnectorAt(h)
	require.True(t, ok)
	assert.Equal(t, "z", got.ID)
}

func TestRegisterOverwriteResetsLink(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a", "s1", 0, 0, 0))
	g.Register(conn("b", "s2", 0, 0, 0))
	g.Connect("a", "b")

	h1, _ := g.HandleOf("a")
	h2 := g.Register(conn("a", "s1", 3, 0, 0))
	assert.Equal(t, h1, h2)
	b, _ := g.Connector("b")
	assert.False(t, b.IsConnected())
	a, _ := g.Connector("a")
	assert.Equal(t, geom.P(3, 0, 0), a.Origin)
}

func TestAutoConnectSkipsSameOwner(t *testing.T) {
	g := NewGraph()
	g.Register(conn("s1:start", "s1", 0, 0, 0))
	g.Register(conn("s1:end", "s1", 0, 0, 0)) // zero-length segment
	assert.Equal(t, 0, g.AutoConnect(0.01))

	g.Register(conn("s2:start", "s2", 0, 0, 0))
	assert.Equal(t, 1, g.AutoConnect(0.01))
	c, _ := g.Connector("s2:start")
	assert.Equal(t, "s1:start", c.ConnectedToID, "first open partner in registration order wins")
}

func TestAutoConnectIdempotent(t *testing.T) {
	g := NewGraph()
	g.Register(conn("s1:end", "s1", 10, 0, 0))
	g.Register(conn("s2:start", "s2", 10.005, 0, 0))
	g.Register(conn("s2:end", "s2", 20, 0, 0))
	g.Register(conn("s3:start", "s3", 30, 0, 0))

	assert.Equal(t, 1, g.AutoConnect(0.01))
	assert.Equal(t, 0, g.AutoConnect(0.01))
	assert.Equal(t, [][2]string{{"s1:end", "s2:start"}}, g.Connections())
}

func TestAutoConnectRandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewGraph()
	for i := 0; i < 120; i++ {
		owner := fmt.Sprintf("o%d", rng.Intn(20))
		g.Register(conn(fmt.Sprintf("c%d", i), owner, float64(rng.Intn(4)), float64(rng.Intn(4)), 0))
	}
	g.AutoConnect(0.5)
	assert.Equal(t, 0, g.AutoConnect(0.5))

	for _, c := range g.Connectors() {
		if !c.IsConnected() {
			continue
		}
		peer, ok := g.Connector(c.ConnectedToID)
		require.True(t, ok)
		assert.Equal(t, c.ID, peer.ConnectedToID, "connection must be symmetric")
		assert.NotEqual(t, c.OwnerID, peer.OwnerID, "same-owner pair connected")
	}
}

func TestManagerNearestUnconnectedAndRelease(t *testing.T) {
	g := NewGraph()
	m := NewManager("s1")
	m.Create(g, "s1:start", geom.P(0, 0, 0), geom.P(-2, 0, 0))
	m.Create(g, "s1:end", geom.P(10, 0, 0), geom.P(2, 0, 0))
	g.Register(conn("other", "s2", 10, 0, 0))

	c, ok := m.NearestUnconnected(g, geom.P(9.99, 0, 0), 0.1)
	require.True(t, ok)
	assert.Equal(t, "s1:end", c.ID)
	assert.True(t, c.Direction.IsAlmostEqualTo(geom.BasisX), "direction is normalized")

	g.Connect("s1:end", "other")
	_, ok = m.NearestUnconnected(g, geom.P(9.99, 0, 0), 0.1)
	assert.False(t, ok)

	assert.Equal(t, 2, m.Release(g))
	assert.Equal(t, 0, m.Len())
	o, _ := g.Connector("other")
	assert.False(t, o.IsConnected())
}

func TestReachable(t *testing.T) {
	g := NewGraph()
	g.Register(conn("a:end", "a", 1, 0, 0))
	g.Register(conn("b:start", "b", 1, 0, 0))
	g.Register(conn("b:end", "b", 2, 0, 0))
	g.Register(conn("c:start", "c", 2, 0, 0))
	g.Register(conn("d:start", "d", 9, 0, 0))
	g.AutoConnect(0.01)

	r := g.Reachable("a")
	assert.True(t, r["a"] && r["b"] && r["c"])
	assert.False(t, r["d"])
	assert.Equal(t, []string{"a", "c"}, g.ConnectedOwners("b"))
}
