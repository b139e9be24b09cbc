package models

import (
	"time"

	"gorm.io/gorm"
)

type School struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"size:120;not null" json:"name"`
	// Email domain used to gate self-service signups (e.g. "lincoln.edu").
	Domain    string `gorm:"size:120;index" json:"domain"`
	CreatorID uint   `gorm:"not null" json:"creator_id"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}
