package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, s.Ping(ctx))

	in := &Data{UserID: "u-1", Flashes: []Flash{{Category: "info", Message: "hi"}}}
	require.NoError(t, s.Save(ctx, "abc", in, time.Hour))
	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, s.Save(ctx, "abc", &Data{UserID: "u-1"}, time.Minute))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))
	_, err := s.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestManager_WithRedisStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)
	m := newManager(s)

	sess, _ := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetUser("u-9")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, sess))

	got, err := m.Load(ctx, roundTrip(w))
	require.NoError(t, err)
	assert.Equal(t, "u-9", got.UserID())
}
