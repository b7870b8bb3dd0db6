package comment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"blogengine/internal/database"
	"blogengine/internal/domain"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:comment_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func seedPost(t *testing.T, db *gorm.DB) *domain.Post {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{Email: "a@b.com", PasswordHash: "hash", ActivationLink: "link"}
	require.NoError(t, repository.NewUserRepository(db).Create(ctx, u))
	p := &domain.Post{Title: "Hello", Content: "World", UserID: u.ID}
	require.NoError(t, repository.NewPostRepository(db).Create(ctx, p))
	return p
}

func newService(db *gorm.DB) *Service {
	return NewService(repository.NewCommentRepository(db), repository.NewPostRepository(db))
}

func TestAdd_StartsAtZeroRating(t *testing.T) {
	db := setupTestDB(t)
	p := seedPost(t, db)
	svc := newService(db)

	c, err := svc.Add(context.Background(), p.ID, CommentRequest{Author: "jane", Content: "Nice"})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Rating)
	assert.Equal(t, p.ID, c.PostID)
	assert.Nil(t, c.ChildID)
}

func TestAdd_MissingPost(t *testing.T) {
	svc := newService(setupTestDB(t))

	_, err := svc.Add(context.Background(), "nope", CommentRequest{Author: "jane", Content: "Nice"})
	assert.True(t, errors.Is(err, apperror.NotFound))
	assert.Equal(t, "Post not found.", apperror.As(err).Message)

	_, err = svc.ListByPost(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperror.NotFound))
}

func TestReply_LinksParent(t *testing.T) {
	db := setupTestDB(t)
	p := seedPost(t, db)
	svc := newService(db)
	ctx := context.Background()

	parent, err := svc.Add(ctx, p.ID, CommentRequest{Author: "jane", Content: "First"})
	require.NoError(t, err)

	result, err := svc.Reply(ctx, parent.ID, CommentRequest{Author: "john", Content: "Second"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, result.NewComment.PostID)
	require.NotNil(t, result.ParentComment.ChildID)
	assert.Equal(t, result.NewComment.ID, *result.ParentComment.ChildID)

	comments, err := svc.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	_, err = svc.Reply(ctx, "nope", CommentRequest{Author: "john", Content: "Second"})
	assert.True(t, errors.Is(err, apperror.NotFound))
	assert.Equal(t, "Comment not found.", apperror.As(err).Message)
}

func TestListByPost_EmptyIsFine(t *testing.T) {
	db := setupTestDB(t)
	p := seedPost(t, db)

	comments, err := newService(db).ListByPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
