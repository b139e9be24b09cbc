package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepositoryInterface
	classworkRepo  repository.ClassworkRepositoryInterface
	classRepo      repository.ClassRepositoryInterface
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepositoryInterface,
	classworkRepo repository.ClassworkRepositoryInterface,
	classRepo repository.ClassRepositoryInterface,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		classworkRepo:  classworkRepo,
		classRepo:      classRepo,
	}
}

// SaveDraft creates or updates the student's draft for an assignment.
// One submission per (classwork, student); drafts can be re-saved until
// turned in.
func (s *SubmissionService) SaveDraft(classworkID, studentID uint, body, attachmentKey string) (*models.Submission, error) {
	work, err := s.assignmentFor(classworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStudent(work.ClassID, studentID); err != nil {
		return nil, err
	}

	sub, err := s.submissionRepo.FindByClassworkAndStudent(classworkID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = &models.Submission{
			ClassworkID:   classworkID,
			StudentID:     studentID,
			Body:          body,
			AttachmentKey: attachmentKey,
			State:         models.SubmissionDraft,
		}
		if err := s.submissionRepo.Create(sub); err != nil {
			return nil, err
		}
		return sub, nil
	}
	if err != nil {
		return nil, err
	}
	if sub.State == models.SubmissionTurnedIn {
		return nil, errors.New("submission is turned in; unsubmit first")
	}

	sub.Body = body
	sub.AttachmentKey = attachmentKey
	if sub.State == models.SubmissionReturned {
		// Re-editing a returned submission starts a fresh draft.
		sub.State = models.SubmissionDraft
	}
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) TurnIn(classworkID, studentID uint) (*models.Submission, error) {
	work, err := s.assignmentFor(classworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStudent(work.ClassID, studentID); err != nil {
		return nil, err
	}

	sub, err := s.submissionRepo.FindByClassworkAndStudent(classworkID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Turning in with no draft submits an empty submission.
		sub = &models.Submission{ClassworkID: classworkID, StudentID: studentID}
		if err := s.submissionRepo.Create(sub); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if sub.State == models.SubmissionTurnedIn {
		return nil, errors.New("already turned in")
	}

	now := time.Now()
	sub.State = models.SubmissionTurnedIn
	sub.TurnedInAt = &now
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubmit reverts a turned-in submission to draft so the student can
// keep editing. Returned work stays returned.
func (s *SubmissionService) Unsubmit(classworkID, studentID uint) (*models.Submission, error) {
	sub, err := s.submissionRepo.FindByClassworkAndStudent(classworkID, studentID)
	if err != nil {
		return nil, errors.New("submission not found")
	}
	if sub.State != models.SubmissionTurnedIn {
		return nil, errors.New("submission is not turned in")
	}
	sub.State = models.SubmissionDraft
	sub.TurnedInAt = nil
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Return grades a submission and hands it back to the student.
func (s *SubmissionService) Return(submissionID, teacherID uint, grade *int) (*models.Submission, error) {
	sub, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, err
	}
	work, err := s.classworkRepo.FindByID(sub.ClassworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacher(work.ClassID, teacherID); err != nil {
		return nil, err
	}
	if sub.State != models.SubmissionTurnedIn {
		return nil, errors.New("only turned-in work can be returned")
	}
	if grade != nil {
		if *grade < 0 {
			return nil, errors.New("grade cannot be negative")
		}
		if work.Points != nil && *grade > *work.Points {
			return nil, errors.New("grade exceeds assignment points")
		}
	}

	now := time.Now()
	sub.State = models.SubmissionReturned
	sub.Grade = grade
	sub.ReturnedAt = &now
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) GetOwn(classworkID, studentID uint) (*models.Submission, error) {
	sub, err := s.submissionRepo.FindByClassworkAndStudent(classworkID, studentID)
	if err != nil {
		return nil, errors.New("submission not found")
	}
	return sub, nil
}

// ListForClasswork lists every student's submission; teachers only.
func (s *SubmissionService) ListForClasswork(classworkID, teacherID uint) ([]models.Submission, error) {
	work, err := s.classworkRepo.FindByID(classworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacher(work.ClassID, teacherID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByClasswork(classworkID)
}

func (s *SubmissionService) ListForStudent(studentID uint) ([]models.Submission, error) {
	return s.submissionRepo.ListByStudent(studentID)
}

func (s *SubmissionService) assignmentFor(classworkID uint) (*models.Classwork, error) {
	work, err := s.classworkRepo.FindByID(classworkID)
	if err != nil {
		return nil, errors.New("classwork not found")
	}
	if work.Kind != models.ClassworkAssignment {
		return nil, errors.New("only assignments accept submissions")
	}
	return work, nil
}

func (s *SubmissionService) requireStudent(classID, userID uint) error {
	role, err := s.classRepo.GetMemberRole(classID, userID)
	if err != nil {
		return errors.New("not a member of this class")
	}
	if role != models.ClassRoleStudent {
		return errors.New("only students can submit work")
	}
	return nil
}

func (s *SubmissionService) requireTeacher(classID, userID uint) error {
	role, err := s.classRepo.GetMemberRole(classID, userID)
	if err != nil {
		return ErrNotClassTeacher
	}
	if role != models.ClassRoleTeacher {
		return ErrNotClassTeacher
	}
	return nil
}
