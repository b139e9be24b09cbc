package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/repository"
	"github.com/classboardhq/classboard-backend/internal/storage"
)

const maxAttachmentSize = 25 << 20 // 25 MiB

// AttachmentService stores classwork and submission attachments in
// object storage and records the key on the owning row.
type AttachmentService struct {
	classworkRepo  repository.ClassworkRepositoryInterface
	submissionRepo repository.SubmissionRepositoryInterface
	classRepo      repository.ClassRepositoryInterface
	s3             *storage.S3Storage
}

func NewAttachmentService(
	classworkRepo repository.ClassworkRepositoryInterface,
	submissionRepo repository.SubmissionRepositoryInterface,
	classRepo repository.ClassRepositoryInterface,
	s3 *storage.S3Storage,
) *AttachmentService {
	return &AttachmentService{
		classworkRepo:  classworkRepo,
		submissionRepo: submissionRepo,
		classRepo:      classRepo,
		s3:             s3,
	}
}

func (s *AttachmentService) AttachToClasswork(ctx context.Context, classworkID, teacherID uint, filename string, body io.Reader, size int64, contentType string) (*models.Classwork, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	if size <= 0 || size > maxAttachmentSize {
		return nil, errors.New("attachment size out of range")
	}

	work, err := s.classworkRepo.FindByID(classworkID)
	if err != nil {
		return nil, err
	}
	role, err := s.classRepo.GetMemberRole(work.ClassID, teacherID)
	if err != nil || role != models.ClassRoleTeacher {
		return nil, ErrNotClassTeacher
	}

	key := attachmentKey("classwork", classworkID, filename)
	if _, err := s.s3.PutObject(ctx, key, body, size, contentType); err != nil {
		return nil, err
	}

	oldKey := work.AttachmentKey
	work.AttachmentKey = key
	if err := s.classworkRepo.Update(work); err != nil {
		_ = s.s3.DeleteObject(ctx, key)
		return nil, err
	}
	if oldKey != "" && oldKey != key {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}
	return work, nil
}

func (s *AttachmentService) AttachToSubmission(ctx context.Context, classworkID, studentID uint, filename string, body io.Reader, size int64, contentType string) (*models.Submission, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	if size <= 0 || size > maxAttachmentSize {
		return nil, errors.New("attachment size out of range")
	}

	sub, err := s.submissionRepo.FindByClassworkAndStudent(classworkID, studentID)
	if err != nil {
		return nil, errors.New("submission not found")
	}
	if sub.State == models.SubmissionTurnedIn {
		return nil, errors.New("submission is turned in; unsubmit first")
	}

	key := attachmentKey("submissions", sub.ID, filename)
	if _, err := s.s3.PutObject(ctx, key, body, size, contentType); err != nil {
		return nil, err
	}

	oldKey := sub.AttachmentKey
	sub.AttachmentKey = key
	if err := s.submissionRepo.Update(sub); err != nil {
		_ = s.s3.DeleteObject(ctx, key)
		return nil, err
	}
	if oldKey != "" && oldKey != key {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}
	return sub, nil
}

// CanRead reports whether a user may fetch an attachment key. Classwork
// attachments are visible to class members; submission attachments to
// the student and the class teachers.
func (s *AttachmentService) CanRead(key string, userID uint) (bool, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		return false, nil
	}
	var id uint
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		return false, nil
	}

	switch parts[0] {
	case "classwork":
		work, err := s.classworkRepo.FindByID(id)
		if err != nil {
			return false, nil
		}
		return s.classRepo.IsMember(work.ClassID, userID)
	case "submissions":
		sub, err := s.submissionRepo.FindByID(id)
		if err != nil {
			return false, nil
		}
		if sub.StudentID == userID {
			return true, nil
		}
		work, err := s.classworkRepo.FindByID(sub.ClassworkID)
		if err != nil {
			return false, nil
		}
		role, err := s.classRepo.GetMemberRole(work.ClassID, userID)
		if err != nil {
			return false, nil
		}
		return role == models.ClassRoleTeacher, nil
	}
	return false, nil
}

func attachmentKey(scope string, id uint, filename string) string {
	base := path.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == "/" {
		base = "file"
	}
	return fmt.Sprintf("%s/%d/%s-%s", scope, id, uuid.NewString(), base)
}
