package repository

import (
	"context"

	"blogengine/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u; a taken email or activation link yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", domain.NormalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByActivationLink(ctx context.Context, link string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("activationlink = ?", link).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// SetActivated flips the activation flag. Returns gorm.ErrRecordNotFound
// when no user has the id.
func (r *UserRepository) SetActivated(ctx context.Context, id string, activated bool) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("isactivated", activated)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// Delete removes the user together with their refresh tokens, posts, the
// comments on those posts and the votes on those comments.
func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	var deleted domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&deleted).Error; err != nil {
			return err
		}

		posts := tx.Model(&domain.Post{}).Select("id").Where("user_id = ?", id)
		comments := tx.Model(&domain.Comment{}).Select("id").Where("post_id IN (?)", posts)

		if err := tx.Where("comment_id IN (?)", comments).Delete(&domain.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN (?)", posts).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
