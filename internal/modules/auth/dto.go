package auth

import (
	"blogengine/internal/domain"
	"blogengine/internal/pkg/jwt"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email" example:"a@b.com"`
	Password string `json:"password" binding:"required,password" example:"Secret123"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"a@b.com"`
	Password string `json:"password" binding:"required" example:"Secret123"`
}

// LoginResult is what login hands back: a fresh pair and the user.
type LoginResult struct {
	jwt.TokenPair
	User domain.PublicUser `json:"user"`
}

// RefreshResult carries the rotated pair and the decoded refresh claim.
type RefreshResult struct {
	jwt.TokenPair
	UserData RefreshClaim `json:"userData"`
}

type RefreshClaim struct {
	ID        string `json:"id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

type LogoutAllResult struct {
	DeletedTokens DeletedCount `json:"deletedTokens"`
}

type DeletedCount struct {
	Count int64 `json:"count"`
}

// MeResponse is the profile of the calling user.
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
