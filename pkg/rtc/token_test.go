package rtc

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := mintToken(t, jwt.MapClaims{
		"sub":  "user-123",
		"name": "Ada Lovelace",
		"exp":  expiry.Unix(),
		"video": map[string]any{
			"room":     "abc-def-ghi",
			"roomJoin": true,
		},
	})

	token, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc-def-ghi", token.Room)
	assert.Equal(t, "user-123", token.Identity)
	assert.Equal(t, "Ada Lovelace", token.Name)
	assert.True(t, expiry.Equal(token.ExpiresAt))
}

func TestDecode_NoExpiry(t *testing.T) {
	raw := mintToken(t, jwt.MapClaims{"sub": "user-123"})

	token, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, token.ExpiresAt.IsZero())
	assert.Empty(t, token.Room)
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "input %q", raw)
	}
}
