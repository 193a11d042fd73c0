package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is an API identity. Roles holds the raw provider-style role strings;
// use Role() for the typed capability.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"size:255;not null;uniqueIndex:idx_users_username" json:"username"`
	PasswordHash string         `gorm:"size:512;not null" json:"-"`
	Roles        pq.StringArray `gorm:"type:text[]" json:"roles"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Role resolves the highest capability granted by the stored role strings.
func (u *User) Role() enums.Role {
	return enums.RoleFromProviderStrings(u.Roles)
}
