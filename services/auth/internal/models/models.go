package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"            json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"   json:"username"`
	PasswordHash string    `gorm:"not null"                        json:"-"`
	Role         string    `gorm:"size:16;not null;default:'user'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken stores the sha256 of an issued refresh token, never the token.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                   json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"size:36;uniqueIndex;not null" json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"     json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"  json:"-"`
	ExpiresAt time.Time `gorm:"not null"                     json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"       json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

func All() []any {
	return []any{&User{}, &RefreshToken{}}
}
