package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxTextLength          = 280
	MaxRepostCommentLength = 256
)

// Post with a non-nil ParentID is a nested post. Parent resolves to nil once
// the parent is soft-deleted.
type Post struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID     `json:"parent_id" gorm:"type:uuid;index"`
	Text      string         `json:"text" gorm:"type:varchar(280)"`
	Image     string         `json:"image,omitempty"`
	Video     string         `json:"video,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User   *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Parent *Post `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
}

// Comment with a non-nil ParentID is a reply.
type Comment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	PostID    uuid.UUID      `json:"post_id" gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID     `json:"parent_id" gorm:"type:uuid;index"`
	Text      string         `json:"text" gorm:"type:varchar(280)"`
	Image     string         `json:"image,omitempty"`
	Video     string         `json:"video,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type Like struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_target"`
	TargetType TargetType `json:"target_type" gorm:"type:varchar(16);not null;uniqueIndex:idx_like_target;index:idx_like_lookup"`
	TargetID   uuid.UUID  `json:"target_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_target;index:idx_like_lookup"`
	CreatedAt  time.Time  `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Repost has no uniqueness: a user may repost the same post many times.
type Repost struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	OriginalPostID uuid.UUID `json:"original_post_id" gorm:"type:uuid;not null;index"`
	Comment        string    `json:"comment,omitempty" gorm:"type:varchar(256)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`

	User         *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OriginalPost *Post `json:"original_post,omitempty" gorm:"foreignKey:OriginalPostID"`
}

type Share struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	TargetType TargetType `json:"target_type" gorm:"type:varchar(16);not null"`
	TargetID   uuid.UUID  `json:"target_id" gorm:"type:uuid;not null"`
	Message    string     `json:"message,omitempty" gorm:"type:varchar(280)"`
	CreatedAt  time.Time  `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Post) TableName() string {
	return "posts"
}

func (Comment) TableName() string {
	return "comments"
}

func (Like) TableName() string {
	return "likes"
}

func (Repost) TableName() string {
	return "reposts"
}

func (Share) TableName() string {
	return "shares"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	return assignID(&p.ID)
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	return assignID(&c.ID)
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	return assignID(&l.ID)
}

func (r *Repost) BeforeCreate(tx *gorm.DB) error {
	return assignID(&r.ID)
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	return assignID(&s.ID)
}

// HasParent reports whether the post was created under another post.
func (p *Post) HasParent() bool {
	return p.ParentID != nil
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// Kind is the like target type of the comment: reply if it has a parent.
func (c *Comment) Kind() TargetType {
	if c.IsReply() {
		return TargetReply
	}
	return TargetComment
}
