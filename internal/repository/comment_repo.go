package repository

import (
	"context"

	"blogengine/internal/domain"

	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// CreateReply stores reply under the parent's post and points the parent's
// child_id at it.
func (r *CommentRepository) CreateReply(ctx context.Context, parent *domain.Comment, reply *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reply.PostID = parent.PostID
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Comment{}).
			Where("id = ?", parent.ID).
			Update("child_id", reply.ID).Error
	})
}
