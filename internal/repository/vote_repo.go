package repository

import (
	"context"

	"blogengine/internal/domain"

	"gorm.io/gorm"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) ExistsForVoter(ctx context.Context, commentID, ip string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Vote{}).
		Where("comment_id = ? AND ip = ?", commentID, ip).
		Count(&count).Error
	return count > 0, err
}

// Cast stores v and adds its value to the comment rating atomically.
// A second vote from the same ip yields ErrDuplicate.
func (r *VoteRepository) Cast(ctx context.Context, v *domain.Vote) (*domain.Comment, error) {
	var updated domain.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&domain.Comment{}).
			Where("id = ?", v.CommentID).
			Update("rating", gorm.Expr("rating + ?", v.Value)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", v.CommentID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
