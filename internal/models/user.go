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
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Name           string         `json:"name" gorm:"not null"`
	Username       string         `json:"username" gorm:"uniqueIndex;not null"`
	Email          string         `json:"email,omitempty" gorm:"uniqueIndex;not null"`
	Password       string         `json:"-" gorm:"not null"`
	Bio            string         `json:"bio"`
	Avatar         string         `json:"avatar"`
	Role           string         `json:"role" gorm:"not null;default:user"`
	FollowerCount  int64          `json:"follower_count" gorm:"not null;default:0"`
	FollowingCount int64          `json:"following_count" gorm:"not null;default:0"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// Follow edges are hard-deleted on unfollow; the unique index keeps at most
// one edge per pair.
type Follow struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_following"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_following;index"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  *User `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Following *User `json:"following,omitempty" gorm:"foreignKey:FollowingID"`
}

func (User) TableName() string {
	return "users"
}

func (Follow) TableName() string {
	return "follows"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	return assignID(&f.ID)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the author/actor shape embedded in lists.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	IsFollowing bool      `json:"is_following"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Username: u.Username, Avatar: u.Avatar}
}

// UserProfile is a user as seen by a viewer.
type UserProfile struct {
	User
	IsFollowing bool `json:"is_following"`
}

// assignID gives new rows a time-ordered UUIDv7 so ids sort by creation.
func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v7
	return nil
}
