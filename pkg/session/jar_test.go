package session

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}

func TestJar_SetAndGet(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://localhost:8080/api")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "access", Value: "a1"},
		{Name: "refresh", Value: "r1", MaxAge: 3600},
	})

	got := jar.Cookies(u)
	assert.ElementsMatch(t, []string{"access", "refresh"}, cookieNames(got))

	// Another host sees nothing.
	assert.Empty(t, jar.Cookies(mustURL(t, "http://other.example.com/")))
}

func TestJar_ExpiryAndDeletion(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://localhost:8080/api")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "gone", Value: "x", Expires: time.Now().Add(-time.Hour)},
		{Name: "kept", Value: "y", Expires: time.Now().Add(time.Hour)},
	})
	assert.ElementsMatch(t, []string{"kept"}, cookieNames(jar.Cookies(u)))

	// MaxAge < 0 is an explicit deletion, the way logout clears tokens.
	jar.SetCookies(u, []*http.Cookie{{Name: "kept", MaxAge: -1}})
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	u := mustURL(t, "http://localhost:8080/api")

	jar := NewJar()
	jar.SetCookies(u, []*http.Cookie{{Name: "access", Value: "a1", MaxAge: 3600}})
	require.NoError(t, jar.Save(path))

	restored := NewJar()
	require.NoError(t, restored.Load(path))
	got := restored.Cookies(u)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].Value)
}

func TestJar_LoadMissingFileIsEmpty(t *testing.T) {
	jar := NewJar()
	require.NoError(t, jar.Load(filepath.Join(t.TempDir(), "absent.json")))
	assert.Empty(t, jar.Cookies(mustURL(t, "http://localhost:8080/")))
}

func TestJar_Clear(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://localhost:8080/api")
	jar.SetCookies(u, []*http.Cookie{{Name: "access", Value: "a1"}})

	jar.Clear()
	assert.Empty(t, jar.Cookies(u))
}
