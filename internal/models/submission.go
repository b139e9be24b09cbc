package models

import (
	"time"

	"gorm.io/gorm"
)

type SubmissionState string

const (
	SubmissionDraft    SubmissionState = "draft"
	SubmissionTurnedIn SubmissionState = "turned_in"
	SubmissionReturned SubmissionState = "returned"
)

type Submission struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClassworkID uint `gorm:"not null;uniqueIndex:idx_classwork_student" json:"classwork_id"`
	StudentID   uint `gorm:"not null;uniqueIndex:idx_classwork_student;index" json:"student_id"`

	Body          string          `gorm:"type:text" json:"body"`
	AttachmentKey string          `json:"attachment_key,omitempty"`
	State         SubmissionState `gorm:"type:varchar(20);default:'draft';index" json:"state"`
	Grade         *int            `json:"grade"`
	TurnedInAt    *time.Time      `json:"turned_in_at"`
	ReturnedAt    *time.Time      `json:"returned_at"`

	Student   User      `gorm:"foreignKey:StudentID" json:"student"`
	Classwork Classwork `gorm:"foreignKey:ClassworkID" json:"-"`
}
