package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"blogengine/internal/database"
	"blogengine/internal/domain"
	"blogengine/internal/metrics"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/jwt"
	"blogengine/internal/pkg/password"
	"blogengine/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendActivationMail(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}

type fixture struct {
	svc     *Service
	users   *repository.UserRepository
	tokens  *repository.RefreshTokenRepository
	codec   *jwt.Service
	mailer  *mockMailer
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, rotationRevokesOld bool) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))

	hasher, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		users:   repository.NewUserRepository(db),
		tokens:  repository.NewRefreshTokenRepository(db),
		codec:   jwt.New(testAccessSecret, testRefreshSecret, 30*time.Minute, 30*24*time.Hour),
		mailer:  &mockMailer{},
		metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	f.mailer.On("SendActivationMail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.svc = NewService(f.users, f.tokens, f.codec, hasher, f.mailer, f.metrics, nil, Config{
		APIURL:             "http://localhost:8080",
		RotationRevokesOld: rotationRevokesOld,
	})
	return f
}

// activeUser signs up and activates email, returning the activation pair.
func (f *fixture) activeUser(t *testing.T, email string) (*domain.User, jwt.TokenPair) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{Email: email, Password: "Secret123"})
	require.NoError(t, err)

	u, err := f.users.GetByEmail(ctx, email)
	require.NoError(t, err)

	pair, err := f.svc.Activate(ctx, u.ActivationLink)
	require.NoError(t, err)
	return u, pair
}

func (f *fixture) tokenCount(t *testing.T, userID string) int64 {
	t.Helper()
	n, err := f.tokens.CountByUserID(context.Background(), userID)
	require.NoError(t, err)
	return n
}

func TestSignup_ReturnsPublicProjection(t *testing.T) {
	f := newFixture(t, true)

	user, err := f.svc.Signup(context.Background(), SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.False(t, user.IsActivated)

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Secret123")
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$")

	f.svc.WaitMail()
	f.mailer.AssertCalled(t, "SendActivationMail", mock.Anything, "a@b.com",
		mock.MatchedBy(func(link string) bool {
			return strings.HasPrefix(link, "http://localhost:8080/api/users/activate/")
		}))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCount("signup", "success")))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, SignupRequest{Email: " A@B.com", Password: "Secret123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.EntityConflict))
	assert.Equal(t, 409, apperror.As(err).Status())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCount("signup", "ENTITY_CONFLICT")))
}

func TestSignup_OverlongPasswordIsValidation(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Signup(context.Background(), SignupRequest{
		Email:    "a@b.com",
		Password: "Secret123" + strings.Repeat("a", 80),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.Validation))

	exists, err := f.users.ExistsByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSignup_MailFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t, true)
	failing := &mockMailer{}
	failing.On("SendActivationMail", mock.Anything, "a@b.com", mock.Anything).Return(errors.New("smtp down"))
	f.svc.mailer = failing

	user, err := f.svc.Signup(context.Background(), SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	f.svc.WaitMail()
	failing.AssertExpectations(t)
}

// heldMailer blocks until released and reports the context it was given.
type heldMailer struct {
	release chan struct{}
	seen    chan error
}

func (m *heldMailer) SendActivationMail(ctx context.Context, _, _ string) error {
	<-m.release
	if _, ok := ctx.Deadline(); !ok {
		m.seen <- errors.New("mail context has no deadline")
		return nil
	}
	m.seen <- ctx.Err()
	return nil
}

func TestSignup_MailIsSentInBackground(t *testing.T) {
	f := newFixture(t, true)
	held := &heldMailer{release: make(chan struct{}), seen: make(chan error, 1)}
	f.svc.mailer = held

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.svc.Signup(ctx, SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err, "signup returns while the mail is still pending")
	cancel()

	close(held.release)
	select {
	case err := <-held.seen:
		assert.NoError(t, err, "request cancellation must not reach the mail")
	case <-time.After(5 * time.Second):
		t.Fatal("activation mail was never sent")
	}
	f.svc.WaitMail()
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "ghost@b.com", Password: "Secret123"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.Authentication))
	assert.Equal(t, 401, apperror.As(err).Status())
}

func TestLogin_WrongPasswordLooksLikeUnknownEmail(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.activeUser(t, "a@b.com")

	_, wrong := f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Wrong1234"}, "")
	_, unknown := f.svc.Login(ctx, LoginRequest{Email: "ghost@b.com", Password: "Wrong1234"}, "")

	require.Error(t, wrong)
	require.Error(t, unknown)
	assert.True(t, errors.Is(wrong, apperror.Authentication))
	assert.Equal(t, apperror.As(unknown).Message, apperror.As(wrong).Message)
	assert.Equal(t, apperror.As(unknown).ResponseCode(), apperror.As(wrong).ResponseCode())
}

func TestLogin_UnactivatedAccount(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Secret123"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.Forbidden))
	assert.Equal(t, 403, apperror.As(err).Status())

	_, err = f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Wrong1234"}, "")
	assert.True(t, errors.Is(err, apperror.Forbidden), "activation is checked before the password")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.AuthEventCount("login", "FORBIDDEN")))
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, true)
	u, _ := f.activeUser(t, "a@b.com")

	result, err := f.svc.Login(context.Background(), LoginRequest{Email: "A@b.com", Password: "Secret123"}, "")
	require.NoError(t, err)

	assert.Equal(t, u.ID, result.User.ID)
	assert.True(t, result.User.IsActivated)
	claims, ok := f.codec.VerifyAccess(result.AccessToken)
	require.True(t, ok)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, int64(2), f.tokenCount(t, u.ID))
}

func TestLogin_DropsStalePresentedToken(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, _ := f.activeUser(t, "a@b.com")

	past := time.Now().Add(-60 * 24 * time.Hour)
	oldCodec := jwt.New(testAccessSecret, testRefreshSecret, time.Minute, time.Hour, jwt.WithClock(func() time.Time { return past }))
	expired, err := oldCodec.IssuePair(u.ID)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(ctx, &domain.RefreshToken{Token: expired.RefreshToken, UserID: u.ID}))
	require.Equal(t, int64(2), f.tokenCount(t, u.ID))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Secret123"}, expired.RefreshToken)
	require.NoError(t, err)

	_, err = f.tokens.GetByToken(ctx, expired.RefreshToken)
	assert.Error(t, err, "expired row is removed on login")
	assert.Equal(t, int64(2), f.tokenCount(t, u.ID))
}

func TestLogin_KeepsValidPresentedToken(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, pair := f.activeUser(t, "a@b.com")

	_, err := f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Secret123"}, pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.tokens.GetByToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), f.tokenCount(t, u.ID))
}

func TestLogin_ConcurrentSessions(t *testing.T) {
	f := newFixture(t, true)
	u, _ := f.activeUser(t, "a@b.com")

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "Secret123"}, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(n+1), f.tokenCount(t, u.ID))
}

func TestActivate_OpensExactlyOneSession(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)
	u, err := f.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, int64(0), f.tokenCount(t, u.ID))

	pair, err := f.svc.Activate(ctx, u.ActivationLink)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.tokenCount(t, u.ID))
	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActivated)

	row, err := f.tokens.GetByToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, row.UserID)
}

func TestActivate_LinkStaysValid(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, first := f.activeUser(t, "a@b.com")

	second, err := f.svc.Activate(ctx, u.ActivationLink)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, int64(2), f.tokenCount(t, u.ID))
}

func TestActivate_UnknownLink(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Activate(context.Background(), "no-such-link")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.NotFound))
	assert.Equal(t, "Activation link not found.", apperror.As(err).Message)
}

func TestRefresh_RotatesAndRetiresOld(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, pair := f.activeUser(t, "a@b.com")

	result, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, result.AccessToken)
	assert.Equal(t, u.ID, result.UserData.ID)
	assert.Greater(t, result.UserData.ExpiresAt, result.UserData.IssuedAt)

	access, ok := f.codec.VerifyAccess(result.AccessToken)
	require.True(t, ok)
	assert.Equal(t, u.ID, access.UserID)
	refresh, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, refresh.UserID)

	assert.Equal(t, int64(1), f.tokenCount(t, u.ID))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, errors.Is(err, apperror.Authentication), "retired token is rejected")
}

func TestRefresh_OverlappingWhenRotationKeepsOld(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	u, pair := f.activeUser(t, "a@b.com")

	_, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.tokenCount(t, u.ID))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_ConcurrentUseOfOneToken(t *testing.T) {
	f := newFixture(t, true)
	u, pair := f.activeUser(t, "a@b.com")

	const n = 4
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, apperror.Authentication), "got %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(1), f.tokenCount(t, u.ID))
}

func TestRefresh_Failures(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, "")
	assert.True(t, errors.Is(err, apperror.Authentication))

	_, err = f.svc.Refresh(ctx, "not-a-token")
	assert.True(t, errors.Is(err, apperror.Forbidden))

	// signed correctly but never stored
	pair, err := f.codec.IssuePair("someone")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, errors.Is(err, apperror.Authentication))

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, apperror.Forbidden))
}

func TestLogout_Twice(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, pair := f.activeUser(t, "a@b.com")

	token, err := f.svc.Logout(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, token.Token)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Logout(ctx, pair.RefreshToken)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.Authentication))
	}

	_, err = f.svc.Logout(ctx, "")
	assert.True(t, errors.Is(err, apperror.Authentication))
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, pair := f.activeUser(t, "a@b.com")
	other, _ := f.activeUser(t, "c@d.com")

	var prior []string
	prior = append(prior, pair.RefreshToken)
	for i := 0; i < 3; i++ {
		result, err := f.svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Secret123"}, "")
		require.NoError(t, err)
		prior = append(prior, result.RefreshToken)
	}

	result, err := f.svc.LogoutAll(ctx, prior[1])
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.DeletedTokens.Count)
	assert.Equal(t, int64(0), f.tokenCount(t, u.ID))
	assert.Equal(t, int64(1), f.tokenCount(t, other.ID))

	for _, tok := range prior {
		_, err := f.svc.Refresh(ctx, tok)
		assert.True(t, errors.Is(err, apperror.Authentication))
	}

	_, err = f.svc.LogoutAll(ctx, prior[0])
	assert.True(t, errors.Is(err, apperror.Authentication))
}

func TestMeListAndDelete(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, _ := f.activeUser(t, "a@b.com")
	f.activeUser(t, "c@d.com")

	me, err := f.svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.Email)

	all, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := f.svc.DeleteMe(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, deleted.ID)
	assert.Equal(t, int64(0), f.tokenCount(t, u.ID))

	_, err = f.svc.Me(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.NotFound))
	_, err = f.svc.DeleteMe(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.NotFound))
}

func TestPurgeStaleTokens(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u, live := f.activeUser(t, "a@b.com")
	other, _ := f.activeUser(t, "c@d.com")

	past := time.Now().Add(-60 * 24 * time.Hour)
	oldCodec := jwt.New(testAccessSecret, testRefreshSecret, time.Minute, time.Hour, jwt.WithClock(func() time.Time { return past }))
	expired, err := oldCodec.IssuePair(u.ID)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(ctx, &domain.RefreshToken{Token: expired.RefreshToken, UserID: u.ID}))

	// valid signature, wrong owner
	foreign, err := f.codec.IssuePair(other.ID)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(ctx, &domain.RefreshToken{Token: foreign.RefreshToken, UserID: u.ID}))

	removed, err := f.svc.PurgeStaleTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = f.tokens.GetByToken(ctx, live.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), f.tokenCount(t, u.ID))
	assert.Equal(t, int64(1), f.tokenCount(t, other.ID))
}
