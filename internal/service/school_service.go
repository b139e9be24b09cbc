package service

import (
	"errors"
	"strings"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

type SchoolService struct {
	schoolRepo repository.SchoolRepositoryInterface
	userRepo   repository.UserRepositoryInterface
}

func NewSchoolService(schoolRepo repository.SchoolRepositoryInterface, userRepo repository.UserRepositoryInterface) *SchoolService {
	return &SchoolService{schoolRepo: schoolRepo, userRepo: userRepo}
}

type SchoolInput struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// CreateSchool provisions a school and binds the creating admin to it.
func (s *SchoolService) CreateSchool(creatorID uint, input SchoolInput) (*models.School, error) {
	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if creator.Role != models.UserRoleAdmin {
		return nil, errors.New("forbidden")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}

	domain := strings.ToLower(strings.TrimSpace(input.Domain))
	if domain != "" {
		if _, err := s.schoolRepo.FindByDomain(domain); err == nil {
			return nil, errors.New("domain already registered")
		}
	}

	school := &models.School{
		Name:      name,
		Domain:    domain,
		CreatorID: creatorID,
	}
	if err := s.schoolRepo.Create(school); err != nil {
		return nil, err
	}

	if creator.SchoolID == nil {
		creator.SchoolID = &school.ID
		_ = s.userRepo.Update(creator)
	}

	return school, nil
}

func (s *SchoolService) UpdateSchool(schoolID, actorID uint, input SchoolInput) (*models.School, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	school, err := s.schoolRepo.FindByID(schoolID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.UserRoleAdmin || school.CreatorID != actorID {
		return nil, errors.New("forbidden")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		school.Name = name
	}
	if input.Domain != "" {
		school.Domain = strings.ToLower(strings.TrimSpace(input.Domain))
	}

	if err := s.schoolRepo.Update(school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *SchoolService) GetSchool(schoolID uint) (*models.School, error) {
	return s.schoolRepo.FindByID(schoolID)
}

func (s *SchoolService) ListSchools(limit int) ([]models.School, error) {
	return s.schoolRepo.List(limit)
}
