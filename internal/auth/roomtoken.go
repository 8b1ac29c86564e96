// Package auth inspects room access tokens on the client side. The signing
// secret lives with the room service, so claims are read without signature
// verification; the only thing enforced locally is that a well-formed token
// has not already expired, which would make the join handshake fail after a
// round trip anyway.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed room token")
	ErrExpiredToken   = errors.New("room token has expired")
)

// RoomClaims are the claims a room access token may carry.
type RoomClaims struct {
	RoomUUID string `json:"roomUUID,omitempty"`
	Region   string `json:"region,omitempty"`
	jwt.RegisteredClaims
}

// Inspect parses a room token's claims without verifying its signature.
// Returns ErrMalformedToken when the token is not a JWT at all and
// ErrExpiredToken when its expiry has passed.
func Inspect(tokenString string) (*RoomClaims, error) {
	claims := &RoomClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrMalformedToken
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}
