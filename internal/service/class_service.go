package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/classboardhq/classboard-backend/internal/email"
	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/repository"
	"github.com/classboardhq/classboard-backend/internal/validation"
)

var ErrNotClassTeacher = errors.New("only a class teacher can do this")

type ClassService struct {
	classRepo  repository.ClassRepositoryInterface
	topicRepo  repository.TopicRepositoryInterface
	userRepo   repository.UserRepositoryInterface
	schoolRepo repository.SchoolRepositoryInterface
	feed       *realtime.Feed
	mailer     email.Service
}

func NewClassService(
	classRepo repository.ClassRepositoryInterface,
	topicRepo repository.TopicRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	schoolRepo repository.SchoolRepositoryInterface,
	feed *realtime.Feed,
	mailer email.Service,
) *ClassService {
	return &ClassService{
		classRepo:  classRepo,
		topicRepo:  topicRepo,
		userRepo:   userRepo,
		schoolRepo: schoolRepo,
		feed:       feed,
		mailer:     mailer,
	}
}

type CreateClassInput struct {
	SchoolID uint   `json:"school_id"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Section  string `json:"section"`
	Room     string `json:"room"`
}

func (s *ClassService) CreateClass(creatorID uint, input CreateClassInput) (*models.Class, error) {
	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if creator.Role != models.UserRoleTeacher && creator.Role != models.UserRoleAdmin {
		return nil, errors.New("only teachers can create classes")
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.New("name is required")
	}

	schoolID := input.SchoolID
	if schoolID == 0 && creator.SchoolID != nil {
		schoolID = *creator.SchoolID
	}
	if schoolID == 0 {
		return nil, errors.New("school is required")
	}
	if _, err := s.schoolRepo.FindByID(schoolID); err != nil {
		return nil, errors.New("school not found")
	}

	class := &models.Class{
		SchoolID:  schoolID,
		Name:      input.Name,
		Subject:   strings.TrimSpace(input.Subject),
		Section:   strings.TrimSpace(input.Section),
		Room:      strings.TrimSpace(input.Room),
		JoinCode:  generateJoinCode(),
		CreatorID: creatorID,
	}

	if err := s.classRepo.Create(class); err != nil {
		return nil, err
	}

	// Creator teaches the class.
	if err := s.classRepo.AddMember(class.ID, creatorID, models.ClassRoleTeacher); err != nil {
		return nil, err
	}
	s.publishMembership(class.ID, creatorID, creatorID)

	return s.classRepo.FindByID(class.ID)
}

func (s *ClassService) JoinByCode(code string, userID uint) (*models.Class, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validation.ValidateJoinCode(code) {
		return nil, errors.New("invalid join code")
	}

	class, err := s.classRepo.FindByJoinCode(code)
	if err != nil {
		return nil, errors.New("class not found")
	}
	if class.Archived {
		return nil, errors.New("class is archived")
	}

	isMember, err := s.classRepo.IsMember(class.ID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, errors.New("already a member of this class")
	}

	if err := s.classRepo.AddMember(class.ID, userID, models.ClassRoleStudent); err != nil {
		return nil, err
	}
	s.publishMembership(class.ID, userID, userID)

	return class, nil
}

// AddStudent lets a teacher enroll a student by username.
func (s *ClassService) AddStudent(classID, teacherID uint, username string) (*models.User, error) {
	if err := s.requireTeacher(classID, teacherID); err != nil {
		return nil, err
	}

	student, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, errors.New("user not found")
	}

	isMember, err := s.classRepo.IsMember(classID, student.ID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, errors.New("already a member of this class")
	}

	if err := s.classRepo.AddMember(classID, student.ID, models.ClassRoleStudent); err != nil {
		return nil, err
	}
	s.publishMembership(classID, student.ID, teacherID)

	return student, nil
}

func (s *ClassService) RemoveMember(classID, teacherID, userID uint) error {
	if teacherID != userID {
		if err := s.requireTeacher(classID, teacherID); err != nil {
			return err
		}
	}
	if err := s.classRepo.RemoveMember(classID, userID); err != nil {
		return err
	}
	s.publishMembership(classID, userID, teacherID)
	return nil
}

func (s *ClassService) LeaveClass(classID, userID uint) error {
	return s.RemoveMember(classID, userID, userID)
}

func (s *ClassService) GetClass(classID uint) (*models.Class, error) {
	return s.classRepo.FindByID(classID)
}

func (s *ClassService) GetMembers(classID uint) ([]models.ClassMember, error) {
	return s.classRepo.GetMembers(classID)
}

func (s *ClassService) GetUserClasses(userID uint) ([]models.Class, error) {
	return s.classRepo.GetUserClasses(userID)
}

func (s *ClassService) IsMember(classID, userID uint) (bool, error) {
	return s.classRepo.IsMember(classID, userID)
}

func (s *ClassService) IsTeacher(classID, userID uint) (bool, error) {
	role, err := s.classRepo.GetMemberRole(classID, userID)
	if err != nil {
		return false, err
	}
	return role == models.ClassRoleTeacher, nil
}

// RegenerateJoinCode rotates the code, invalidating the old one.
func (s *ClassService) RegenerateJoinCode(classID, teacherID uint) (*models.Class, error) {
	if err := s.requireTeacher(classID, teacherID); err != nil {
		return nil, err
	}
	class, err := s.classRepo.FindByID(classID)
	if err != nil {
		return nil, err
	}
	class.JoinCode = generateJoinCode()
	if err := s.classRepo.Update(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *ClassService) ArchiveClass(classID, teacherID uint, archived bool) (*models.Class, error) {
	if err := s.requireTeacher(classID, teacherID); err != nil {
		return nil, err
	}
	class, err := s.classRepo.FindByID(classID)
	if err != nil {
		return nil, err
	}
	class.Archived = archived
	if err := s.classRepo.Update(class); err != nil {
		return nil, err
	}
	return class, nil
}

// InviteByEmail mails the join code to prospective students.
func (s *ClassService) InviteByEmail(classID, teacherID uint, addresses []string) error {
	if err := s.requireTeacher(classID, teacherID); err != nil {
		return err
	}
	if s.mailer == nil {
		return errors.New("email not configured")
	}

	class, err := s.classRepo.FindByID(classID)
	if err != nil {
		return err
	}

	to := make([]mail.Address, 0, len(addresses))
	for _, addr := range addresses {
		addr = validation.NormalizeEmail(addr)
		if validation.ValidateEmail(addr) {
			to = append(to, mail.Address{Address: addr})
		}
	}
	if len(to) == 0 {
		return errors.New("no valid recipients")
	}

	s.mailer.SendMessages(&email.Message{
		To:      to,
		Subject: fmt.Sprintf("You're invited to %s", class.Name),
		TextContent: fmt.Sprintf(
			"You have been invited to join %s.\n\nUse join code %s to enroll.",
			class.Name, class.JoinCode,
		),
	})
	return nil
}

func (s *ClassService) CreateTopic(classID, teacherID uint, name string, position int) (*models.Topic, error) {
	if err := s.requireTeacher(classID, teacherID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	topic := &models.Topic{ClassID: classID, Name: name, Position: position}
	if err := s.topicRepo.Create(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *ClassService) ListTopics(classID, userID uint) ([]models.Topic, error) {
	isMember, err := s.classRepo.IsMember(classID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.New("not a member of this class")
	}
	return s.topicRepo.ListByClass(classID)
}

func (s *ClassService) DeleteTopic(topicID, teacherID uint) error {
	topic, err := s.topicRepo.FindByID(topicID)
	if err != nil {
		return err
	}
	if err := s.requireTeacher(topic.ClassID, teacherID); err != nil {
		return err
	}
	return s.topicRepo.Delete(topicID)
}

func (s *ClassService) requireTeacher(classID, userID uint) error {
	role, err := s.classRepo.GetMemberRole(classID, userID)
	if err != nil {
		return ErrNotClassTeacher
	}
	if role != models.ClassRoleTeacher {
		return ErrNotClassTeacher
	}
	return nil
}

func (s *ClassService) publishMembership(classID, userID, actorID uint) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(realtime.Event{
		Kind:    realtime.EventMembershipChanged,
		ClassID: classID,
		UserID:  userID,
		ActorID: actorID,
	})
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateJoinCode() string {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		// Degenerate fallback; collisions are caught by the unique index.
		for i := range b {
			b[i] = joinCodeAlphabet[i%len(joinCodeAlphabet)]
		}
	}
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = joinCodeAlphabet[int(v)%len(joinCodeAlphabet)]
	}
	return string(out)
}
