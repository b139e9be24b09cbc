package testutil

import (
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/classboardhq/classboard-backend/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id uint, username, email string) *models.User {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}
	if email == "" {
		email = "test@example.com"
	}

	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hashed_password_123",
		FullName:     "Test User",
		Role:         models.UserRoleStudent,
		IsOnline:     false,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// CreateTestClass creates a test class with default values
func (h *TestHelper) CreateTestClass(id, creatorID uint, name string) *models.Class {
	if id == 0 {
		id = 1
	}
	if creatorID == 0 {
		creatorID = 1
	}
	if name == "" {
		name = "Test Class"
	}

	return &models.Class{
		ID:        id,
		Name:      name,
		Section:   "A",
		JoinCode:  "XK7R2MQ",
		CreatorID: creatorID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestClasswork creates a test classwork item with default values
func (h *TestHelper) CreateTestClasswork(id, classID, authorID uint, kind models.ClassworkKind) *models.Classwork {
	if id == 0 {
		id = 1
	}
	if classID == 0 {
		classID = 1
	}
	if authorID == 0 {
		authorID = 1
	}
	if kind == "" {
		kind = models.ClassworkLesson
	}

	return &models.Classwork{
		ID:        id,
		ClassID:   classID,
		AuthorID:  authorID,
		Kind:      kind,
		Title:     "Test Classwork",
		Body:      "Test body",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
	os.Setenv("PASSWORD_MIN_LENGTH", "10")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("PASSWORD_MIN_LENGTH")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// AssertNil checks if a value is nil
func (h *TestHelper) AssertNil(value interface{}, testName string) {
	if value != nil {
		h.t.Errorf("%s: expected nil value but got %v", testName, value)
	}
}

// GetRecordNotFoundError returns the not-found sentinel repositories use
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
