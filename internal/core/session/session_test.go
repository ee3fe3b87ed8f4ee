package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(store Store) *Manager {
	return NewManager(store, Options{CookieName: "sid", Secret: []byte("k"), TTL: time.Hour})
}

// roundTrip copies the cookies set on w into a fresh request.
func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestManager_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := newManager(NewMemoryStore())

	s, err := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.Empty(t, s.UserID())

	s.SetUser("u-1")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))

	got, err := m.Load(ctx, roundTrip(w))
	require.NoError(t, err)
	assert.False(t, got.IsNew())
	assert.Equal(t, s.ID(), got.ID())
	assert.Equal(t, "u-1", got.UserID())
}

func TestManager_UntouchedNewSessionIsNotPersisted(t *testing.T) {
	store := NewMemoryStore()
	m := newManager(store)
	s, _ := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, s))
	assert.Empty(t, w.Result().Cookies())
	assert.Zero(t, store.Len())
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	ctx := context.Background()
	m := newManager(NewMemoryStore())
	s, _ := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetUser("u-1")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: s.ID() + ".forged"})
	got, err := m.Load(ctx, r)
	require.NoError(t, err)
	assert.True(t, got.IsNew())
	assert.Empty(t, got.UserID())

	other := NewManager(NewMemoryStore(), Options{CookieName: "sid", Secret: []byte("other")})
	got, _ = other.Load(ctx, roundTrip(w))
	assert.True(t, got.IsNew())
}

func TestManager_Flashes(t *testing.T) {
	ctx := context.Background()
	m := newManager(NewMemoryStore())
	s, _ := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	s.AddFlash("danger", "Please log in")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))

	got, _ := m.Load(ctx, roundTrip(w))
	assert.Equal(t, []Flash{{Category: "danger", Message: "Please log in"}}, got.PopFlashes())
	assert.Empty(t, got.PopFlashes())

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w2, got))
	again, _ := m.Load(ctx, roundTrip(w2))
	assert.Empty(t, again.PopFlashes())
}

func TestManager_DestroyAndRenew(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newManager(store)
	s, _ := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetUser("u-1")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))

	oldID := s.ID()
	require.NoError(t, m.Renew(ctx, s))
	assert.NotEqual(t, oldID, s.ID())
	assert.Equal(t, "u-1", s.UserID())
	_, err := store.Get(ctx, oldID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))
	renewed := s.ID()

	w := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, w, s))
	assert.Empty(t, s.UserID())
	assert.True(t, s.IsNew())
	_, err = store.Get(ctx, renewed)
	assert.ErrorIs(t, err, ErrNotFound)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore()
	store.Now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a", &Data{UserID: "u"}, time.Minute))
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	store.Now = func() time.Time { return now.Add(time.Minute) }
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
