// Package rtc inspects the media-room access token handed out with an
// approved join. The token is issued and verified by the media server; the
// client only decodes it to show which room and identity it was minted for.
package rtc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed room access token")

// RoomToken is the decoded, unverified view of a media-room JWT.
type RoomToken struct {
	Room      string
	Identity  string
	Name      string
	ExpiresAt time.Time
}

type videoGrant struct {
	Room     string `json:"room"`
	RoomJoin bool   `json:"roomJoin"`
}

type roomClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video videoGrant `json:"video,omitempty"`
}

// Decode parses the token without signature verification. Only the media
// server can verify it; the claims are informational on this side.
func Decode(raw string) (*RoomToken, error) {
	var claims roomClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	token := &RoomToken{
		Room:     claims.Video.Room,
		Identity: claims.Subject,
		Name:     claims.Name,
	}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}
	return token, nil
}
