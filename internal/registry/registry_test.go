package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-server/internal/entity"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Run("Creates on first use and is idempotent", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: the same id is requested twice
		first := reg.GetOrCreate("ABC")
		second := reg.GetOrCreate("ABC")

		// Then: both calls yield the same session instance
		require.NotNil(t, first)
		require.Same(t, first, second)
		require.Equal(t, 1, reg.Count())
	})

	t.Run("Exactly one session under concurrent first joins", func(t *testing.T) {
		// Given: an empty registry and many callers racing on one unseen id
		reg := New()

		const callers = 32

		var wg sync.WaitGroup
		results := make([]*entity.Session, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = reg.GetOrCreate("ABC")
			}(i)
		}
		wg.Wait()

		// Then: every caller got the same session instance
		for _, session := range results {
			require.Same(t, results[0], session)
		}
		require.Equal(t, 1, reg.Count())
	})
}

func TestRegistry_Join(t *testing.T) {
	t.Run("Creates the session and assigns the first slot", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: a connection joins an unseen id
		session, slot, ready, err := reg.Join("ABC", "c1")

		// Then: the session exists, slot 0 is taken and the game is not ready
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, 0, slot)
		require.False(t, ready)

		registered, ok := reg.Get("ABC")
		require.True(t, ok)
		require.Same(t, session, registered)
	})

	t.Run("Second join fills the session and reports ready", func(t *testing.T) {
		// Given: a session with one participant
		reg := New()
		_, _, _, err := reg.Join("ABC", "c1")
		require.NoError(t, err)

		// When: a second connection joins
		_, slot, ready, err := reg.Join("ABC", "c2")

		// Then: slot 1 is taken and the game is ready
		require.NoError(t, err)
		require.Equal(t, 1, slot)
		require.True(t, ready)
	})

	t.Run("Third join is rejected without creating anything", func(t *testing.T) {
		// Given: a full session
		reg := New()
		_, _, _, err := reg.Join("ABC", "c1")
		require.NoError(t, err)
		_, _, _, err = reg.Join("ABC", "c2")
		require.NoError(t, err)

		// When: a third connection tries to join
		session, slot, ready, err := reg.Join("ABC", "c3")

		// Then: the join fails and the registry is untouched
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Equal(t, -1, slot)
		assert.False(t, ready)
		require.Equal(t, 1, reg.Count())
	})

	t.Run("Join lands in the registered session despite a racing removal", func(t *testing.T) {
		// Given: a session whose last participant is on the way out
		reg := New()
		first, _, _, err := reg.Join("ABC", "c1")
		require.NoError(t, err)

		first.RemoveParticipant("c1")
		reg.RemoveIfEmpty("ABC")

		// When: a new connection joins the same id after the removal
		second, _, _, err := reg.Join("ABC", "c2")
		require.NoError(t, err)

		// Then: the joined session is exactly the one the registry holds,
		// so later lookups route moves to the joiner's session
		registered, ok := reg.Get("ABC")
		require.True(t, ok)
		require.Same(t, second, registered)
	})

	t.Run("Concurrent joins and removals never strand a joiner", func(t *testing.T) {
		// Given: many connections churning through the same session id
		reg := New()

		const callers = 16

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				connID := string(rune('a' + i))
				for n := 0; n < 50; n++ {
					session, _, _, err := reg.Join("ABC", connID)
					if err != nil {
						continue
					}

					// While this connection occupies a slot, the session it
					// joined must be the one the registry resolves.
					registered, ok := reg.Get("ABC")
					assert.True(t, ok)
					assert.Same(t, session, registered)

					session.RemoveParticipant(connID)
					reg.RemoveIfEmpty("ABC")
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestRegistry_Get(t *testing.T) {
	// Given: a registry with one session
	reg := New()
	created := reg.GetOrCreate("ABC")

	// When: known and unknown ids are looked up
	found, ok := reg.Get("ABC")
	_, missing := reg.Get("XYZ")

	// Then: only the known id resolves
	require.True(t, ok)
	require.Same(t, created, found)
	assert.False(t, missing)
}

func TestRegistry_RemoveIfEmpty(t *testing.T) {
	t.Run("Removes an empty session", func(t *testing.T) {
		// Given: a session with no participants
		reg := New()
		reg.GetOrCreate("ABC")

		// When: RemoveIfEmpty is called
		removed := reg.RemoveIfEmpty("ABC")

		// Then: the session is gone
		require.True(t, removed)
		_, ok := reg.Get("ABC")
		require.False(t, ok)
	})

	t.Run("Keeps a session that still has a participant", func(t *testing.T) {
		// Given: a session with one participant
		reg := New()
		session := reg.GetOrCreate("ABC")
		_, _, err := session.Join("c1")
		require.NoError(t, err)

		// When: RemoveIfEmpty is called
		removed := reg.RemoveIfEmpty("ABC")

		// Then: the session stays registered
		require.False(t, removed)
		_, ok := reg.Get("ABC")
		require.True(t, ok)
	})

	t.Run("Unknown id is a no-op", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: RemoveIfEmpty is called for an id that was never created
		removed := reg.RemoveIfEmpty("XYZ")

		// Then: nothing is reported removed
		assert.False(t, removed)
	})
}
