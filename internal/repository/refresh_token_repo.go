package repository

import (
	"context"

	"blogengine/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByToken removes the row holding token and returns it. A concurrent
// delete of the same row makes the loser see gorm.ErrRecordNotFound.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var deleted domain.RefreshToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&deleted).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", deleted.ID).Delete(&domain.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (r *RefreshTokenRepository) DeleteAllByUserID(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

// Rotate swaps oldToken for next in one transaction. If oldToken is already
// gone the swap is abandoned with gorm.ErrRecordNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", oldToken).Delete(&domain.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return translate(tx.Create(next).Error)
	})
}

func (r *RefreshTokenRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// InBatches walks every stored token, batchSize rows at a time.
func (r *RefreshTokenRepository) InBatches(ctx context.Context, batchSize int, fn func([]domain.RefreshToken) error) error {
	var batch []domain.RefreshToken
	return r.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func (r *RefreshTokenRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
