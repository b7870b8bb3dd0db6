package comment

import (
	"context"
	"errors"

	"blogengine/internal/domain"
	"blogengine/internal/pkg/apperror"

	"gorm.io/gorm"
)

const (
	msgPostNotFound    = "Post not found."
	msgCommentNotFound = "Comment not found."
)

type CommentRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	CreateReply(ctx context.Context, parent *domain.Comment, reply *domain.Comment) error
}

type PostReader interface {
	GetByID(ctx context.Context, id string) (*domain.Post, error)
}

type Service struct {
	comments CommentRepositoryInterface
	posts    PostReader
}

func NewService(comments CommentRepositoryInterface, posts PostReader) *Service {
	return &Service{comments: comments, posts: posts}
}

// Add comments on a post. Anyone may comment.
func (s *Service) Add(ctx context.Context, postID string, req CommentRequest) (*domain.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	c := &domain.Comment{Author: req.Author, Content: req.Content, PostID: postID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Reply attaches a comment to the parent's post and links it from the parent.
func (s *Service) Reply(ctx context.Context, parentID string, req CommentRequest) (*ReplyResult, error) {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(msgCommentNotFound)
		}
		return nil, err
	}

	reply := &domain.Comment{Author: req.Author, Content: req.Content}
	if err := s.comments.CreateReply(ctx, parent, reply); err != nil {
		return nil, err
	}
	parent.ChildID = &reply.ID
	return &ReplyResult{ParentComment: *parent, NewComment: *reply}, nil
}

func (s *Service) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *Service) requirePost(ctx context.Context, postID string) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound(msgPostNotFound)
		}
		return err
	}
	return nil
}
