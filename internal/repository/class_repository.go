package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type ClassRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(class *models.Class) error {
	return r.db.Create(class).Error
}

func (r *ClassRepository) FindByID(id uint) (*models.Class, error) {
	var class models.Class
	if err := r.db.Preload("Members").Preload("Creator").First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepository) FindByJoinCode(code string) (*models.Class, error) {
	var class models.Class
	err := r.db.Where("UPPER(join_code) = UPPER(?)", code).
		Preload("Creator").
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepository) Update(class *models.Class) error {
	return r.db.Save(class).Error
}

func (r *ClassRepository) ListBySchool(schoolID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.Where("school_id = ?", schoolID).
		Preload("Creator").
		Order("name ASC").
		Find(&classes).Error
	return classes, err
}

func (r *ClassRepository) AddMember(classID, userID uint, role models.ClassRole) error {
	member := models.ClassMember{
		ClassID: classID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.Create(&member).Error
}

func (r *ClassRepository) RemoveMember(classID, userID uint) error {
	return r.db.Where("class_id = ? AND user_id = ?", classID, userID).Delete(&models.ClassMember{}).Error
}

func (r *ClassRepository) GetMembers(classID uint) ([]models.ClassMember, error) {
	var members []models.ClassMember
	err := r.db.Where("class_id = ?", classID).
		Preload("User").
		Order("role ASC, joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *ClassRepository) IsMember(classID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ClassMember{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ClassRepository) GetMemberRole(classID, userID uint) (models.ClassRole, error) {
	var member models.ClassMember
	if err := r.db.Where("class_id = ? AND user_id = ?", classID, userID).First(&member).Error; err != nil {
		return "", err
	}
	return member.Role, nil
}

func (r *ClassRepository) GetUserClasses(userID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.Joins("JOIN class_members ON class_members.class_id = classes.id").
		Where("class_members.user_id = ?", userID).
		Preload("Creator").
		Find(&classes).Error
	return classes, err
}

// GetClassName returns just the display name, used on the hot notification path.
func (r *ClassRepository) GetClassName(classID uint) (string, error) {
	var name string
	err := r.db.Model(&models.Class{}).
		Where("id = ?", classID).
		Pluck("name", &name).Error
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", gorm.ErrRecordNotFound
	}
	return name, nil
}

func (r *ClassRepository) GetUserClassIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ClassMember{}).
		Where("user_id = ?", userID).
		Pluck("class_id", &ids).Error
	return ids, err
}
