package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution types.
const (
	TypeAudio = "audio"
	TypeText  = "text"
	TypePhoto = "photo"
	TypeVideo = "video"
)

// ValidType reports whether t is one of the contribution type constants.
func ValidType(t string) bool {
	switch t {
	case TypeAudio, TypeText, TypePhoto, TypeVideo:
		return true
	}
	return false
}

// Contribution is one uploaded content item. Likes and LikedBy are mutated
// together in a single document update so that Likes == len(LikedBy) holds
// after every successful toggle.
type Contribution struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Username    string             `bson:"username,omitempty" json:"username,omitempty"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Language    string             `bson:"language,omitempty" json:"language,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	URL         string             `bson:"url" json:"url"`
	Likes       int                `bson:"likes" json:"likes"`
	LikedBy     []string           `bson:"liked_by" json:"liked_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// LikedByUser reports whether uid is in the liked-by set.
func (c *Contribution) LikedByUser(uid string) bool {
	for _, id := range c.LikedBy {
		if id == uid {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so an optimistic mutation can be reverted to the
// exact prior state.
func (c *Contribution) Clone() *Contribution {
	cp := *c
	cp.LikedBy = append([]string(nil), c.LikedBy...)
	return &cp
}
