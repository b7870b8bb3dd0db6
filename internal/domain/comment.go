package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment belongs to a post. ChildID points at the latest reply, if any.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Author    string    `json:"author" gorm:"size:25;not null"`
	Content   string    `json:"content" gorm:"size:250;not null"`
	Rating    int       `json:"rating" gorm:"not null;default:0"`
	PostID    string    `json:"post_id" gorm:"size:36;index;not null"`
	Post      Post      `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	ChildID   *string   `json:"child_id" gorm:"size:36"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
