package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := &Client{addr: "a"}

	require.Nil(t, r.Register("alice", c))
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Same(t, c, got)
	require.True(t, r.Connected("alice"))
	require.Equal(t, 1, r.Len())

	_, ok = r.Lookup("bob")
	require.False(t, ok)
}

func TestRegistryRegisterSameClientTwice(t *testing.T) {
	r := NewRegistry()
	c := &Client{addr: "a"}

	require.Nil(t, r.Register("alice", c))
	require.Nil(t, r.Register("alice", c))
	require.Equal(t, 1, r.Len())
}

func TestRegistrySupersede(t *testing.T) {
	r := NewRegistry()
	c1 := &Client{addr: "old"}
	c2 := &Client{addr: "new"}

	require.Nil(t, r.Register("alice", c1))
	prior := r.Register("alice", c2)
	require.Same(t, c1, prior)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Same(t, c2, got)
	require.Equal(t, 1, r.Len())
}

func TestRegistryRemoveOnlyCurrentHolder(t *testing.T) {
	r := NewRegistry()
	c1 := &Client{addr: "old"}
	c2 := &Client{addr: "new"}

	r.Register("alice", c1)
	r.Register("alice", c2)

	// The displaced connection's teardown must not evict the replacement.
	require.False(t, r.Remove("alice", c1))
	require.True(t, r.Connected("alice"))

	require.True(t, r.Remove("alice", c2))
	require.False(t, r.Connected("alice"))
	require.False(t, r.Remove("alice", c2))
}

func TestRegistryConcurrentRegisterSingleWinner(t *testing.T) {
	const n = 64
	r := NewRegistry()

	var wg sync.WaitGroup
	var displacedMu sync.Mutex
	displaced := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &Client{addr: fmt.Sprintf("conn-%d", i)}
			if prior := r.Register("alice", c); prior != nil {
				displacedMu.Lock()
				displaced++
				displacedMu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, r.Len())
	require.Equal(t, n-1, displaced)
}

func TestRegistryAllConnected(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", &Client{addr: "a"})
	r.Register("bob", &Client{addr: "b"})

	require.ElementsMatch(t, []string{"alice", "bob"}, r.AllConnected())
	require.Len(t, r.Clients(), 2)
}
