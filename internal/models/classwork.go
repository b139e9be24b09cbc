package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentKind distinguishes the feed/unread buckets a content item counts toward.
type ContentKind string

const (
	KindClasswork    ContentKind = "classwork"
	KindAnnouncement ContentKind = "announcement"
)

type ClassworkKind string

const (
	ClassworkLesson     ClassworkKind = "lesson"
	ClassworkAssignment ClassworkKind = "assignment"
)

// Classwork is a lesson or assignment posted to a class. Identity is
// immutable; title/body/due date may be edited after posting.
type Classwork struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClassID  uint          `gorm:"not null;index" json:"class_id"`
	TopicID  *uint         `gorm:"index" json:"topic_id"`
	AuthorID uint          `gorm:"not null" json:"author_id"`
	Kind     ClassworkKind `gorm:"type:varchar(20);not null;default:'lesson'" json:"kind"`

	Title string `gorm:"size:200;not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`

	// Assignment-only fields.
	DueAt  *time.Time `json:"due_at"`
	Points *int       `json:"points"`

	AttachmentKey string `json:"attachment_key,omitempty"`

	Author User  `gorm:"foreignKey:AuthorID" json:"author"`
	Class  Class `gorm:"foreignKey:ClassID" json:"-"`
}

type Announcement struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClassID  uint   `gorm:"not null;index" json:"class_id"`
	AuthorID uint   `gorm:"not null" json:"author_id"`
	Title    string `gorm:"size:200" json:"title"`
	Body     string `gorm:"type:text;not null" json:"body"`

	Author User  `gorm:"foreignKey:AuthorID" json:"author"`
	Class  Class `gorm:"foreignKey:ClassID" json:"-"`
}

// ReadMarker records that a user has viewed a content item. Existence
// implies read; absence implies unread. No ordering semantics.
type ReadMarker struct {
	UserID    uint        `gorm:"primaryKey" json:"user_id"`
	ItemID    uint        `gorm:"primaryKey" json:"item_id"`
	Kind      ContentKind `gorm:"primaryKey;type:varchar(20)" json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}
