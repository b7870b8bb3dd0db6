package auth

import (
	"context"

	"blogengine/internal/domain"
	"blogengine/internal/pkg/jwt"
)

// UserRepositoryInterface lists the user store methods the service needs.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByActivationLink(ctx context.Context, link string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetActivated(ctx context.Context, id string, activated bool) error
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
}

// RefreshTokenRepositoryInterface is the session store.
type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteAllByUserID(ctx context.Context, userID string) (int64, error)
	Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error
	InBatches(ctx context.Context, batchSize int, fn func([]domain.RefreshToken) error) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// TokenCodec signs and verifies the token pair.
type TokenCodec interface {
	IssuePair(userID string) (jwt.TokenPair, error)
	VerifyRefresh(token string) (*jwt.Claims, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	// Burn spends one comparison so unknown emails cost as much as known ones.
	Burn(plain string)
}

// EventRecorder counts session operations; *metrics.Metrics satisfies it.
type EventRecorder interface {
	AuthEvent(operation, outcome string)
}
