package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile mirrors the profile row kept alongside the external auth
// provider's user record. Authentication itself lives in the auth provider;
// this table only carries app-level profile data.
type UserProfile struct {
	ID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email    string `gorm:"not null" json:"email"`
	FullName string `json:"fullName"`

	// Metadata is a JSONB bag for UI preferences (default jurisdiction, theme).
	Metadata datatypes.JSON `json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
