package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Points awarded per action.
const (
	PointsPerReport       = 10
	PointsPerConfirmation = 5
	PointsPerLevel        = 100
)

type Location struct {
	City  string `bson:"city,omitempty" json:"city,omitempty" validate:"omitempty,max=100"`
	State string `bson:"state,omitempty" json:"state,omitempty" validate:"omitempty,max=100"`
}

type Profile struct {
	Avatar   string   `bson:"avatar,omitempty" json:"avatar,omitempty" validate:"omitempty,max=500"`
	Bio      string   `bson:"bio,omitempty" json:"bio,omitempty" validate:"omitempty,max=200"`
	Location Location `bson:"location" json:"location"`
}

type UserStats struct {
	ReportsCount       int `bson:"reports_count" json:"reportsCount"`
	ConfirmationsCount int `bson:"confirmations_count" json:"confirmationsCount"`
	Points             int `bson:"points" json:"points"`
	Level              int `bson:"level" json:"level"`
}

type NotificationPreferences struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

type Preferences struct {
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Profile      Profile            `bson:"profile" json:"profile"`
	Stats        UserStats          `bson:"stats" json:"stats"`
	Preferences  Preferences        `bson:"preferences" json:"preferences"`
	IsVerified   bool               `bson:"is_verified" json:"isVerified"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NewUser returns a user with default role, stats and notification preferences.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Stats:        UserStats{Level: 1},
		Preferences: Preferences{
			Notifications: NotificationPreferences{Email: true, Push: true},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LevelForPoints derives the level from accumulated points.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary is the public projection used when a user is embedded in another resource.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Profile.Avatar}
}

type UserSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// LeaderboardEntry is one ranked row; Rank is positional.
type LeaderboardEntry struct {
	Rank               int                `json:"rank"`
	ID                 primitive.ObjectID `json:"id"`
	Name               string             `json:"name"`
	Avatar             string             `json:"avatar,omitempty"`
	Points             int                `json:"points"`
	ReportsCount       int                `json:"reportsCount"`
	ConfirmationsCount int                `json:"confirmationsCount"`
	Level              int                `json:"level"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

type NotificationPreferencesInput struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
}

type PreferencesInput struct {
	Notifications *NotificationPreferencesInput `json:"notifications"`
}

// ProfileUpdate holds the only fields a user may change on their own profile.
type ProfileUpdate struct {
	Name        *string           `json:"name" validate:"omitempty,min=2,max=50"`
	Profile     *Profile          `json:"profile"`
	Preferences *PreferencesInput `json:"preferences"`
}
