package post

import (
	"context"
	"errors"
	"log/slog"

	"blogengine/internal/domain"
	"blogengine/internal/pkg/apperror"

	"gorm.io/gorm"
)

const (
	msgPostNotFound = "Post not found."
	msgNoPosts      = "No posts were found for this user."
	msgCannotEdit   = "You are not authorize to edit this post."
	msgCannotDelete = "You are not authorize to delete this post."
)

type PostRepositoryInterface interface {
	Create(ctx context.Context, p *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	Update(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	posts  PostRepositoryInterface
	logger *slog.Logger
}

func NewService(posts PostRepositoryInterface, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{posts: posts, logger: logger}
}

func (s *Service) Create(ctx context.Context, userID string, req PostRequest) (*domain.Post, error) {
	p := &domain.Post{Title: req.Title, Content: req.Content, UserID: userID}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "post created", "post_id", p.ID, "user_id", userID)
	return p, nil
}

// Update rewrites title and content of the caller's post. An unchanged
// request returns the stored post without writing.
func (s *Service) Update(ctx context.Context, userID, postID string, req PostRequest) (*domain.Post, error) {
	p, err := s.owned(ctx, userID, postID, msgCannotEdit)
	if err != nil {
		return nil, err
	}
	if p.Title == req.Title && p.Content == req.Content {
		return p, nil
	}

	p.Title, p.Content = req.Title, req.Content
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID)
}

func (s *Service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(msgPostNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperror.NewNotFound(msgNoPosts)
	}
	return posts, nil
}

// Delete removes the caller's post with its comments and votes.
func (s *Service) Delete(ctx context.Context, userID, postID string) (*domain.Post, error) {
	p, err := s.owned(ctx, userID, postID, msgCannotDelete)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "post deleted", "post_id", postID, "user_id", userID)
	return p, nil
}

func (s *Service) owned(ctx context.Context, userID, postID, forbidden string) (*domain.Post, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperror.NewForbidden(forbidden)
	}
	return p, nil
}
