package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateGetDelete(t *testing.T) {
	st := NewStore(time.Minute)
	defer st.Close()

	s := st.Create()
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(s.ID()))
	_, err = st.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(s.ID()), ErrNotFound)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	st := NewStore(time.Minute)
	defer st.Close()

	a := st.Create()
	b := st.Create()
	require.NotEqual(t, a.ID(), b.ID())

	_, err := a.Analyze(okRun(0.7))
	require.NoError(t, err)

	assert.Equal(t, Analyzed, a.State())
	assert.Equal(t, Idle, b.State())
}

func TestStore_UnknownIDs(t *testing.T) {
	st := NewStore(time.Minute)
	defer st.Close()

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		_, err := st.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore(time.Minute)
	defer st.Close()

	s, created := st.GetOrCreate("")
	assert.True(t, created)

	again, created := st.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, 1, st.Len())
}

func TestStore_Expiry(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	defer st.Close()

	s := st.Create()
	require.Eventually(t, func() bool {
		return st.Len() == 0
	}, time.Second, 5*time.Millisecond, "janitor evicts idle sessions")

	_, err := st.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	stats := st.Stats()
	assert.Contains(t, stats, "ttl_seconds")
}
