package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is one +1/-1 rating of a comment. Voters are identified by ip.
type Vote struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Value     int       `json:"value" gorm:"not null"`
	IP        string    `json:"ip" gorm:"size:64;not null;uniqueIndex:idx_votes_comment_ip"`
	CommentID string    `json:"comment_id" gorm:"size:36;not null;uniqueIndex:idx_votes_comment_ip"`
	Comment   Comment   `json:"-" gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string { return "votes" }

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Models lists every persisted type, in dependency order, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&User{}, &RefreshToken{}, &Post{}, &Comment{}, &Vote{}}
}
