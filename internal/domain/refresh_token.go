package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is a persisted refresh token. A user may hold several at
// once, one per device. A signed token without a row here counts as revoked.
type RefreshToken struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	Token  string `json:"token" gorm:"uniqueIndex;not null"`
	UserID string `json:"user_id" gorm:"size:36;index;not null"`
	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string { return "tokens" }

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Public is the projection returned from logout.
func (t *RefreshToken) Public() PublicRefreshToken {
	return PublicRefreshToken{Token: t.Token}
}

type PublicRefreshToken struct {
	Token string `json:"token"`
}
