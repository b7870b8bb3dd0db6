package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"blogengine/internal/domain"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/jwt"
	"blogengine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgBadCredentials   = "Unable to login. Incorrect email or password."
	msgNotActivated     = "Please confirm your email to login."
	msgActivationAbsent = "Activation link not found."
	msgUserNotFound     = "User not found."

	purgeBatchSize     = 500
	defaultMailTimeout = 10 * time.Second
)

// Config carries the knobs of the session lifecycle.
type Config struct {
	// APIURL is the public base the activation link is built on.
	APIURL string
	// RotationRevokesOld makes refresh delete the presented row in the same
	// transaction that stores the new one.
	RotationRevokesOld bool
	// MailTimeout bounds one activation mail delivery; zero means 10s.
	MailTimeout time.Duration
}

// Service contains all business logic for authentication and sessions.
type Service struct {
	users  UserRepositoryInterface
	tokens RefreshTokenRepositoryInterface
	codec  TokenCodec
	hasher PasswordHasher
	mailer Mailer
	events EventRecorder
	logger *slog.Logger
	cfg    Config

	mail sync.WaitGroup
}

func NewService(
	users UserRepositoryInterface,
	tokens RefreshTokenRepositoryInterface,
	codec TokenCodec,
	hasher PasswordHasher,
	mailer Mailer,
	events EventRecorder,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = defaultMailTimeout
	}
	return &Service{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		mailer: mailer,
		events: events,
		logger: logger,
		cfg:    cfg,
	}
}

// Signup registers an inactive user and mails the activation link in the
// background.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (user *domain.PublicUser, err error) {
	defer s.record("signup", &err)

	email := domain.NormalizeEmail(req.Email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewEntityConflict("")
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:          email,
		PasswordHash:   digest,
		ActivationLink: uuid.NewString(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		// a concurrent signup won the unique index
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Wrap(apperror.EntityConflict, "", err)
		}
		return nil, err
	}

	if s.mailer != nil {
		s.mail.Add(1)
		go s.sendActivation(context.WithoutCancel(ctx), u.ID, u.Email, s.ActivationURL(u.ActivationLink))
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", u.ID)
	public := u.Public()
	return &public, nil
}

// sendActivation delivers the activation mail off the request path. Failures
// are logged only.
func (s *Service) sendActivation(ctx context.Context, userID, email, link string) {
	defer s.mail.Done()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()

	if err := s.mailer.SendActivationMail(ctx, email, link); err != nil {
		s.logger.WarnContext(ctx, "activation mail failed", "user_id", userID, "error", err)
	}
}

// WaitMail blocks until every activation mail queued by Signup is done.
func (s *Service) WaitMail() {
	s.mail.Wait()
}

// ActivationURL is the link mailed to a new user.
func (s *Service) ActivationURL(link string) string {
	return strings.TrimRight(s.cfg.APIURL, "/") + "/api/users/activate/" + link
}

// Activate marks the link's owner activated and opens a session. The link
// stays valid, so repeating the call opens another session.
func (s *Service) Activate(ctx context.Context, link string) (pair jwt.TokenPair, err error) {
	defer s.record("activate", &err)

	u, err := s.users.GetByActivationLink(ctx, link)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jwt.TokenPair{}, apperror.NewNotFound(msgActivationAbsent)
		}
		return jwt.TokenPair{}, err
	}

	if err := s.users.SetActivated(ctx, u.ID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jwt.TokenPair{}, apperror.NewNotFound(msgActivationAbsent)
		}
		return jwt.TokenPair{}, err
	}

	pair, err = s.openSession(ctx, u.ID)
	if err != nil {
		return jwt.TokenPair{}, err
	}

	s.logger.InfoContext(ctx, "user activated", "user_id", u.ID)
	return pair, nil
}

// Login refuses unactivated accounts before looking at the password, then
// checks credentials, drops the presented refresh token if it no longer
// verifies and opens a new session.
func (s *Service) Login(ctx context.Context, req LoginRequest, presented string) (result *LoginResult, err error) {
	defer s.record("login", &err)

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Burn(req.Password)
			return nil, apperror.NewAuthentication(msgBadCredentials)
		}
		return nil, err
	}

	if !u.IsActivated {
		return nil, apperror.NewForbidden(msgNotActivated)
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, apperror.NewAuthentication(msgBadCredentials)
	}

	s.dropStale(ctx, presented)

	pair, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return &LoginResult{TokenPair: pair, User: u.Public()}, nil
}

// Logout deletes the presented session.
func (s *Service) Logout(ctx context.Context, presented string) (token *domain.PublicRefreshToken, err error) {
	defer s.record("logout", &err)

	if presented == "" {
		return nil, apperror.NewAuthentication("")
	}

	deleted, err := s.tokens.DeleteByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewAuthentication("")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", deleted.UserID)
	public := deleted.Public()
	return &public, nil
}

// LogoutAll deletes every session of the presented token's owner.
func (s *Service) LogoutAll(ctx context.Context, presented string) (result *LogoutAllResult, err error) {
	defer s.record("logout_all", &err)

	if presented == "" {
		return nil, apperror.NewAuthentication("")
	}

	stored, err := s.tokens.GetByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewAuthentication("")
		}
		return nil, err
	}

	count, err := s.tokens.DeleteAllByUserID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged out everywhere", "user_id", stored.UserID, "sessions", count)
	return &LogoutAllResult{DeletedTokens: DeletedCount{Count: count}}, nil
}

// Refresh exchanges a stored, verifying refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, presented string) (result *RefreshResult, err error) {
	defer s.record("refresh", &err)

	if presented == "" {
		return nil, apperror.NewAuthentication("")
	}

	claims, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		return nil, err
	}

	stored, err := s.tokens.GetByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewAuthentication("")
		}
		return nil, err
	}
	if stored.UserID != claims.UserID {
		return nil, apperror.NewAuthentication("")
	}

	pair, err := s.codec.IssuePair(claims.UserID)
	if err != nil {
		return nil, err
	}
	next := &domain.RefreshToken{Token: pair.RefreshToken, UserID: claims.UserID}

	if s.cfg.RotationRevokesOld {
		err = s.tokens.Rotate(ctx, presented, next)
	} else {
		err = s.tokens.Create(ctx, next)
	}
	if err != nil {
		// a concurrent refresh already retired the presented row
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewAuthentication("")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "session refreshed", "user_id", claims.UserID)
	return &RefreshResult{TokenPair: pair, UserData: refreshClaim(claims)}, nil
}

func refreshClaim(c *jwt.Claims) RefreshClaim {
	out := RefreshClaim{ID: c.UserID}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Unix()
	}
	return out
}

func (s *Service) Me(ctx context.Context, userID string) (*MeResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(msgUserNotFound)
		}
		return nil, err
	}
	return &MeResponse{ID: u.ID, Email: u.Email}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// DeleteMe removes the caller with everything they own.
func (s *Service) DeleteMe(ctx context.Context, userID string) (user *domain.PublicUser, err error) {
	defer s.record("delete_me", &err)

	deleted, err := s.users.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(msgUserNotFound)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", deleted.ID)
	public := deleted.Public()
	return &public, nil
}

// PurgeStaleTokens deletes stored refresh tokens that no longer verify or
// whose claim names another user. It returns the number of rows removed.
func (s *Service) PurgeStaleTokens(ctx context.Context) (int64, error) {
	var stale []string
	err := s.tokens.InBatches(ctx, purgeBatchSize, func(batch []domain.RefreshToken) error {
		for _, t := range batch {
			claims, err := s.codec.VerifyRefresh(t.Token)
			if err != nil || claims.UserID != t.UserID {
				stale = append(stale, t.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var total int64
	for start := 0; start < len(stale); start += purgeBatchSize {
		end := min(start+purgeBatchSize, len(stale))
		n, err := s.tokens.DeleteByIDs(ctx, stale[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}

	s.logger.InfoContext(ctx, "stale refresh tokens purged", "count", total)
	return total, nil
}

// openSession issues a pair and stores its refresh half.
func (s *Service) openSession(ctx context.Context, userID string) (jwt.TokenPair, error) {
	pair, err := s.codec.IssuePair(userID)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	if err := s.tokens.Create(ctx, &domain.RefreshToken{Token: pair.RefreshToken, UserID: userID}); err != nil {
		return jwt.TokenPair{}, err
	}
	return pair, nil
}

// dropStale deletes the presented refresh token when it no longer verifies.
// Failures are logged and never reach the caller.
func (s *Service) dropStale(ctx context.Context, presented string) {
	if presented == "" {
		return
	}
	if _, err := s.codec.VerifyRefresh(presented); err == nil {
		return
	}

	if _, err := s.tokens.DeleteByToken(ctx, presented); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "stale refresh token cleanup failed", "error", err)
		}
		return
	}
	s.logger.DebugContext(ctx, "stale refresh token removed on login")
}

func (s *Service) record(operation string, errp *error) {
	if s.events == nil {
		return
	}
	outcome := "success"
	if *errp != nil {
		outcome = apperror.As(*errp).ResponseCode()
	}
	s.events.AuthEvent(operation, outcome)
}
