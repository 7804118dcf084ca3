package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest is presented by a gateway (bot, voice agent, web app) to mint
// a user-scoped access token.
type TokenRequest struct {
	GatewayKey string `json:"gateway_key" validate:"required"`
	UserID     int64  `json:"user_id" validate:"required"`
	Username   string `json:"username" validate:"required"`
	Channel    string `json:"channel"`
}

// TokenResponse returns the issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Channel  string `json:"channel,omitempty"`
	jwt.RegisteredClaims
}
