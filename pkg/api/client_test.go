package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(w http.ResponseWriter, status, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func TestClient_EnvelopeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meetings/abc/info", r.URL.Path)
		respond(w, http.StatusOK, 1000, "ok", map[string]interface{}{
			"meetingCode": "abc",
			"title":       "Standup",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	meeting, err := client.Info(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", meeting.MeetingCode)
	assert.Equal(t, "Standup", meeting.Title)
}

func TestClient_EnvelopeBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, 4004, "meeting not found", nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Info(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 4004, apiErr.Code)
	assert.Equal(t, "meeting not found", apiErr.Message)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Info(context.Background(), "abc")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	var meCalls, refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			meCalls++
			if _, err := r.Cookie("access"); err != nil {
				respond(w, http.StatusUnauthorized, 4001, "expired", nil)
				return
			}
			respond(w, http.StatusOK, 1000, "ok", map[string]interface{}{"fullName": "Ada"})
		case "/auth/refresh-token":
			refreshCalls++
			http.SetCookie(w, &http.Cookie{Name: "access", Value: "fresh", Path: "/"})
			respond(w, http.StatusOK, 1000, "ok", nil)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := NewClient(srv.URL, WithCookieJar(jar))

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FullName)
	assert.Equal(t, 2, meCalls, "the original request is retried exactly once")
	assert.Equal(t, 1, refreshCalls)
}

func TestClient_FailedRefreshMeansNotAuthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			respond(w, http.StatusUnauthorized, 4001, "refresh expired", nil)
			return
		}
		respond(w, http.StatusUnauthorized, 4001, "expired", nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_NoRefreshOnAuthPaths(t *testing.T) {
	var refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			refreshCalls++
		}
		respond(w, http.StatusUnauthorized, 4001, "bad credentials", nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Zero(t, refreshCalls, "a 401 from an auth endpoint is final")
}

func TestNormalizeMeetingCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc-def-ghi", "abc-def-ghi"},
		{"  abc-def-ghi  ", "abc-def-ghi"},
		{"https://meet.example.com/abc-def-ghi", "abc-def-ghi"},
		{"https://meet.example.com/abc-def-ghi/", "abc-def-ghi"},
		{"abc def ghi", "abcdefghi"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, NormalizeMeetingCode(test.input), "input %q", test.input)
	}
}
