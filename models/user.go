package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known user roles
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleModerator || role == RoleAdmin
}

// User defines a user entity
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username         string             `bson:"username" json:"username"`
	Email            string             `bson:"email" json:"email"`
	PhoneNumber      string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Password         string             `bson:"password" json:"-"`
	Bio              string             `bson:"bio" json:"bio"`
	ProfilePicture   string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Role             string             `bson:"role" json:"role"`
	RockCount        int                `bson:"rockCount" json:"rockCount"`
	HuntCount        int                `bson:"huntCount" json:"huntCount"`
	SocialCount      int                `bson:"socialCount" json:"socialCount"`
	RockTypes        []string           `bson:"rockTypes" json:"rockTypes"`
	HuntDifficulties []string           `bson:"huntDifficulties" json:"huntDifficulties"`
	CurrentStreak    int                `bson:"currentStreak" json:"currentStreak"`
	LastActiveDay    string             `bson:"lastActiveDay,omitempty" json:"lastActiveDay,omitempty"`
	Credits          []string           `bson:"credits,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the subset of a user shown to other users
type PublicUser struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	Bio            string             `json:"bio"`
	ProfilePicture string             `json:"profilePicture,omitempty"`
	RockCount      int                `json:"rockCount"`
	HuntCount      int                `json:"huntCount"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		RockCount:      u.RockCount,
		HuntCount:      u.HuntCount,
		CreatedAt:      u.CreatedAt,
	}
}

// HasCredit reports whether the action identified by key was already credited
func (u *User) HasCredit(key string) bool {
	for _, k := range u.Credits {
		if k == key {
			return true
		}
	}
	return false
}

// CounterDelta describes an increment applied to a user's denormalized counters
type CounterDelta struct {
	RockCount   int
	HuntCount   int
	SocialCount int
	RockType    string // added to rockTypes as a set member
	Difficulty  string // added to huntDifficulties as a set member
}
