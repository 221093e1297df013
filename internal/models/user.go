package models

import (
	"time"
)

// User is the profile record for an authenticated identity.
// The auth principal (email + password hash) lives in PostgreSQL; the profile
// document lives in MongoDB keyed by the principal's id, so a profile record
// is allowed to lag principal creation.
type User struct {
	UID       string    `bson:"_id" json:"uid"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Username  string    `bson:"username,omitempty" json:"username,omitempty"`
	Country   string    `bson:"country,omitempty" json:"country,omitempty"`
	Region    string    `bson:"region,omitempty" json:"region,omitempty"`
	City      string    `bson:"city,omitempty" json:"city,omitempty"`
	Bio       string    `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
