package service

import (
	"errors"
	"strings"
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

// ContentService manages the class stream: classwork (lessons and
// assignments) and announcements. Creating an item publishes a feed
// event so connected members get notified and unread counters refresh.
type ContentService struct {
	classworkRepo    repository.ClassworkRepositoryInterface
	announcementRepo repository.AnnouncementRepositoryInterface
	readMarkerRepo   repository.ReadMarkerRepositoryInterface
	classRepo        repository.ClassRepositoryInterface
	topicRepo        repository.TopicRepositoryInterface
	feed             *realtime.Feed
}

func NewContentService(
	classworkRepo repository.ClassworkRepositoryInterface,
	announcementRepo repository.AnnouncementRepositoryInterface,
	readMarkerRepo repository.ReadMarkerRepositoryInterface,
	classRepo repository.ClassRepositoryInterface,
	topicRepo repository.TopicRepositoryInterface,
	feed *realtime.Feed,
) *ContentService {
	return &ContentService{
		classworkRepo:    classworkRepo,
		announcementRepo: announcementRepo,
		readMarkerRepo:   readMarkerRepo,
		classRepo:        classRepo,
		topicRepo:        topicRepo,
		feed:             feed,
	}
}

type CreateClassworkInput struct {
	ClassID uint                 `json:"class_id"`
	TopicID *uint                `json:"topic_id"`
	Kind    models.ClassworkKind `json:"kind"`
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	DueAt   *time.Time           `json:"due_at"`
	Points  *int                 `json:"points"`
}

func (s *ContentService) CreateClasswork(authorID uint, input CreateClassworkInput) (*models.Classwork, error) {
	if err := s.requireTeacher(input.ClassID, authorID); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	if input.Kind != models.ClassworkLesson && input.Kind != models.ClassworkAssignment {
		return nil, errors.New("invalid classwork kind")
	}
	if input.Kind == models.ClassworkLesson && (input.DueAt != nil || input.Points != nil) {
		return nil, errors.New("lessons cannot have a due date or points")
	}
	if input.Points != nil && (*input.Points < 0 || *input.Points > 1000) {
		return nil, errors.New("points must be between 0 and 1000")
	}
	if input.TopicID != nil {
		topic, err := s.topicRepo.FindByID(*input.TopicID)
		if err != nil || topic.ClassID != input.ClassID {
			return nil, errors.New("topic not found in this class")
		}
	}

	work := &models.Classwork{
		ClassID:  input.ClassID,
		TopicID:  input.TopicID,
		AuthorID: authorID,
		Kind:     input.Kind,
		Title:    input.Title,
		Body:     input.Body,
		DueAt:    input.DueAt,
		Points:   input.Points,
	}
	if err := s.classworkRepo.Create(work); err != nil {
		return nil, err
	}

	// The author has obviously seen their own post.
	_ = s.readMarkerRepo.Upsert(authorID, work.ID, models.KindClasswork)

	s.publish(realtime.EventClassworkCreated, work.ClassID, work.ID, authorID, work.Title)
	return s.classworkRepo.FindByID(work.ID)
}

type UpdateClassworkInput struct {
	Title  *string    `json:"title"`
	Body   *string    `json:"body"`
	DueAt  *time.Time `json:"due_at"`
	Points *int       `json:"points"`
}

// UpdateClasswork edits mutable fields. Edits do not re-notify and do
// not reset read state; identity is stable across edits.
func (s *ContentService) UpdateClasswork(id, userID uint, input UpdateClassworkInput) (*models.Classwork, error) {
	work, err := s.classworkRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacher(work.ClassID, userID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.New("title cannot be empty")
		}
		work.Title = title
	}
	if input.Body != nil {
		work.Body = *input.Body
	}
	if work.Kind == models.ClassworkAssignment {
		if input.DueAt != nil {
			work.DueAt = input.DueAt
		}
		if input.Points != nil {
			if *input.Points < 0 || *input.Points > 1000 {
				return nil, errors.New("points must be between 0 and 1000")
			}
			work.Points = input.Points
		}
	}

	if err := s.classworkRepo.Update(work); err != nil {
		return nil, err
	}
	return work, nil
}

// DeleteClasswork removes the item and its read markers so it stops
// counting toward anyone's unread totals.
func (s *ContentService) DeleteClasswork(id, userID uint) error {
	work, err := s.classworkRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.requireTeacher(work.ClassID, userID); err != nil {
		return err
	}
	if err := s.classworkRepo.Delete(id); err != nil {
		return err
	}
	return s.readMarkerRepo.DeleteForItem(id, models.KindClasswork)
}

func (s *ContentService) GetClasswork(id, userID uint) (*models.Classwork, error) {
	work, err := s.classworkRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(work.ClassID, userID); err != nil {
		return nil, err
	}
	return work, nil
}

func (s *ContentService) ListClasswork(classID, userID uint) ([]models.Classwork, error) {
	if err := s.requireMember(classID, userID); err != nil {
		return nil, err
	}
	return s.classworkRepo.ListByClass(classID)
}

type CreateAnnouncementInput struct {
	ClassID uint   `json:"class_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (s *ContentService) CreateAnnouncement(authorID uint, input CreateAnnouncementInput) (*models.Announcement, error) {
	if err := s.requireTeacher(input.ClassID, authorID); err != nil {
		return nil, err
	}
	input.Body = strings.TrimSpace(input.Body)
	if input.Body == "" {
		return nil, errors.New("body is required")
	}

	a := &models.Announcement{
		ClassID:  input.ClassID,
		AuthorID: authorID,
		Title:    strings.TrimSpace(input.Title),
		Body:     input.Body,
	}
	if err := s.announcementRepo.Create(a); err != nil {
		return nil, err
	}

	_ = s.readMarkerRepo.Upsert(authorID, a.ID, models.KindAnnouncement)

	title := a.Title
	if title == "" {
		title = truncate(a.Body, 80)
	}
	s.publish(realtime.EventAnnouncementCreated, a.ClassID, a.ID, authorID, title)
	return s.announcementRepo.FindByID(a.ID)
}

func (s *ContentService) DeleteAnnouncement(id, userID uint) error {
	a, err := s.announcementRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.requireTeacher(a.ClassID, userID); err != nil {
		return err
	}
	if err := s.announcementRepo.Delete(id); err != nil {
		return err
	}
	return s.readMarkerRepo.DeleteForItem(id, models.KindAnnouncement)
}

func (s *ContentService) ListAnnouncements(classID, userID uint) ([]models.Announcement, error) {
	if err := s.requireMember(classID, userID); err != nil {
		return nil, err
	}
	return s.announcementRepo.ListByClass(classID)
}

func (s *ContentService) requireTeacher(classID, userID uint) error {
	role, err := s.classRepo.GetMemberRole(classID, userID)
	if err != nil {
		return ErrNotClassTeacher
	}
	if role != models.ClassRoleTeacher {
		return ErrNotClassTeacher
	}
	return nil
}

func (s *ContentService) requireMember(classID, userID uint) error {
	isMember, err := s.classRepo.IsMember(classID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.New("not a member of this class")
	}
	return nil
}

func (s *ContentService) publish(kind realtime.EventKind, classID, itemID, actorID uint, title string) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(realtime.Event{
		Kind:       kind,
		ClassID:    classID,
		ItemID:     itemID,
		ActorID:    actorID,
		Title:      title,
		OccurredAt: time.Now(),
	})
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
