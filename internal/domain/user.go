package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The id is the canonical identity for
// conversation addressing; email is a unique lookup attribute only.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	ProfilePic   *string   `gorm:"type:text" json:"profile_pic,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
