package jwt

import (
	"errors"
	"time"

	"blogengine/internal/pkg/apperror"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service signs and verifies the access/refresh token pair. The two token
// kinds use independent secrets and lifetimes.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Claims is the payload of both token kinds.
type Claims struct {
	UserID string `json:"id"`
	jwtlib.RegisteredClaims
}

// TokenPair is what login, activation and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssuePair signs a fresh access and refresh token for userID.
func (s *Service) IssuePair(userID string) (TokenPair, error) {
	access, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess never fails loudly: any problem yields ok=false.
func (s *Service) VerifyAccess(tokenStr string) (*Claims, bool) {
	claims, err := s.parse(tokenStr, s.accessSecret)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// VerifyRefresh returns a Forbidden error on tampering or expiry.
func (s *Service) VerifyRefresh(tokenStr string) (*Claims, error) {
	claims, err := s.parse(tokenStr, s.refreshSecret)
	if err != nil {
		return nil, apperror.Wrap(apperror.Forbidden, "", err)
	}
	return claims, nil
}

func (s *Service) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *Service) parse(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, errors.New("invalid claims")
	}

	return claims, nil
}
