package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"column:password;not null"`
	IsActivated    bool      `json:"isactivated" gorm:"column:isactivated;not null;default:false"`
	ActivationLink string    `json:"-" gorm:"column:activationlink;size:36;uniqueIndex;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns the id and normalizes the email.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// Public is the projection handed to clients; it never carries the hash.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, IsActivated: u.IsActivated}
}

type PublicUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsActivated bool   `json:"isactivated"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
