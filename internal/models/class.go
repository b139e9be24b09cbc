package models

import (
	"time"

	"gorm.io/gorm"
)

type ClassRole string

const (
	ClassRoleTeacher ClassRole = "teacher"
	ClassRoleStudent ClassRole = "student"
)

type Class struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SchoolID uint   `gorm:"not null;index" json:"school_id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Subject  string `gorm:"size:100" json:"subject"`
	Section  string `gorm:"size:50" json:"section"`
	Room     string `gorm:"size:50" json:"room"`
	// Short code students use to join; regenerated on demand.
	JoinCode  string `gorm:"size:12;uniqueIndex;not null" json:"join_code"`
	CreatorID uint   `gorm:"not null" json:"creator_id"`
	Archived  bool   `gorm:"default:false" json:"archived"`

	Creator User          `gorm:"foreignKey:CreatorID" json:"creator"`
	Members []ClassMember `gorm:"foreignKey:ClassID" json:"members"`
}

type ClassMember struct {
	ClassID  uint      `gorm:"primaryKey" json:"class_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	Role     ClassRole `gorm:"type:varchar(20);default:'student'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Class Class `gorm:"foreignKey:ClassID" json:"-"`
}

// Topic is an ordering bucket for classwork within a class.
type Topic struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClassID  uint   `gorm:"not null;index" json:"class_id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Position int    `gorm:"default:0" json:"position"`
}
