package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" bson:"username" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`

	// Relations
	Todos []Todo `gorm:"foreignKey:OwnerID" bson:"-" json:"-"`
}

// NewID returns a fresh record identifier shared by every storage backend.
func NewID() string {
	return uuid.NewString()
}

// BeforeCreate assigns an ID when the caller did not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}
