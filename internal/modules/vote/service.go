package vote

import (
	"context"
	"errors"

	"blogengine/internal/domain"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/repository"

	"gorm.io/gorm"
)

const (
	msgCommentNotFound = "Comment not found."
	msgAlreadyVoted    = "You have already voted."
)

type VoteRepositoryInterface interface {
	ExistsForVoter(ctx context.Context, commentID, ip string) (bool, error)
	Cast(ctx context.Context, v *domain.Vote) (*domain.Comment, error)
}

type CommentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
}

type Service struct {
	votes    VoteRepositoryInterface
	comments CommentReader
}

func NewService(votes VoteRepositoryInterface, comments CommentReader) *Service {
	return &Service{votes: votes, comments: comments}
}

// Rate records one +1/-1 vote per ip and comment and moves the rating.
func (s *Service) Rate(ctx context.Context, commentID string, value int, ip string) (*RateResult, error) {
	if value != 1 && value != -1 {
		return nil, apperror.NewValidation("")
	}

	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(msgCommentNotFound)
		}
		return nil, err
	}

	voted, err := s.votes.ExistsForVoter(ctx, commentID, ip)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, apperror.NewForbidden(msgAlreadyVoted)
	}

	v := &domain.Vote{Value: value, IP: ip, CommentID: commentID}
	updated, err := s.votes.Cast(ctx, v)
	if err != nil {
		// lost a race against the same voter
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Wrap(apperror.Forbidden, msgAlreadyVoted, err)
		}
		return nil, err
	}
	return &RateResult{NewVoting: *v, UpdatedComment: *updated}, nil
}
