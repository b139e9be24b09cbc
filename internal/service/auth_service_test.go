package service

import (
	"testing"

	"github.com/classboardhq/classboard-backend/internal/models"
)

func newAuthFixture() (*AuthService, *MockUserRepository, *MockRefreshTokenRepository, *MockSchoolRepository) {
	userRepo := NewMockUserRepository()
	tokenRepo := NewMockRefreshTokenRepository()
	schoolRepo := NewMockSchoolRepository()
	svc := NewAuthService(userRepo, tokenRepo, schoolRepo)
	return svc, userRepo, tokenRepo, schoolRepo
}

func TestRegister(t *testing.T) {
	svc, _, _, schoolRepo := newAuthFixture()
	schoolRepo.Create(&models.School{ID: 1, Name: "Springfield High", Domain: "springfield.edu"})

	tests := []struct {
		name      string
		input     RegisterInput
		shouldErr bool
		wantRole  models.UserRole
	}{
		{
			name:     "Register student",
			input:    RegisterInput{Username: "alice", Email: "alice@example.com", Password: "supersecret1", Role: "student"},
			wantRole: models.UserRoleStudent,
		},
		{
			name:     "Register teacher",
			input:    RegisterInput{Username: "bob", Email: "bob@example.com", Password: "supersecret1", Role: "teacher"},
			wantRole: models.UserRoleTeacher,
		},
		{
			name:     "Default role is student",
			input:    RegisterInput{Username: "carol", Email: "carol@example.com", Password: "supersecret1"},
			wantRole: models.UserRoleStudent,
		},
		{
			name:      "Admin cannot self-register",
			input:     RegisterInput{Username: "mallory", Email: "mallory@example.com", Password: "supersecret1", Role: "admin"},
			shouldErr: true,
		},
		{
			name:      "Invalid email",
			input:     RegisterInput{Username: "dave", Email: "not-an-email", Password: "supersecret1"},
			shouldErr: true,
		},
		{
			name:      "Short password",
			input:     RegisterInput{Username: "dave", Email: "dave@example.com", Password: "short"},
			shouldErr: true,
		},
		{
			name:      "Duplicate email",
			input:     RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "supersecret1"},
			shouldErr: true,
		},
		{
			name:      "Duplicate username",
			input:     RegisterInput{Username: "alice", Email: "alice2@example.com", Password: "supersecret1"},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Register(tt.input)
			if (err != nil) != tt.shouldErr {
				t.Errorf("Register error = %v, wantErr %v", err, tt.shouldErr)
			}
			if tt.shouldErr {
				return
			}
			if resp.Token == "" || resp.RefreshToken == "" {
				t.Errorf("Register did not issue tokens")
			}
			if resp.User.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", resp.User.Role, tt.wantRole)
			}
		})
	}
}

func TestRegisterAttachesSchoolByDomain(t *testing.T) {
	svc, _, _, schoolRepo := newAuthFixture()
	schoolRepo.Create(&models.School{ID: 1, Name: "Springfield High", Domain: "springfield.edu"})

	resp, err := svc.Register(RegisterInput{Username: "lisa", Email: "lisa@springfield.edu", Password: "supersecret1"})
	if err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if resp.User.SchoolID == nil || *resp.User.SchoolID != 1 {
		t.Errorf("school = %v, want 1", resp.User.SchoolID)
	}

	resp, err = svc.Register(RegisterInput{Username: "homer", Email: "homer@elsewhere.com", Password: "supersecret1"})
	if err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if resp.User.SchoolID != nil {
		t.Errorf("school = %v, want none", resp.User.SchoolID)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	if _, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	tests := []struct {
		name      string
		input     LoginInput
		shouldErr bool
	}{
		{"Valid credentials", LoginInput{Email: "alice@example.com", Password: "supersecret1"}, false},
		{"Email case-insensitive", LoginInput{Email: "ALICE@example.com", Password: "supersecret1"}, false},
		{"Wrong password", LoginInput{Email: "alice@example.com", Password: "wrongwrong"}, true},
		{"Unknown email", LoginInput{Email: "nobody@example.com", Password: "supersecret1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(tt.input)
			if (err != nil) != tt.shouldErr {
				t.Errorf("Login error = %v, wantErr %v", err, tt.shouldErr)
			}
			if !tt.shouldErr && resp.Token == "" {
				t.Errorf("Login did not issue a token")
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	resp, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "supersecret1"})
	if err != nil {
		t.Fatalf("Register error = %v", err)
	}

	rotated, err := svc.Refresh(resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error = %v", err)
	}
	if rotated.RefreshToken == resp.RefreshToken {
		t.Errorf("refresh token was not rotated")
	}

	// The presented token is revoked on rotation.
	if _, err := svc.Refresh(resp.RefreshToken); err == nil {
		t.Errorf("revoked refresh token still accepted")
	}
	if _, err := svc.Refresh(rotated.RefreshToken); err != nil {
		t.Errorf("rotated token rejected: %v", err)
	}

	if _, err := svc.Refresh("garbage"); err == nil {
		t.Errorf("accepted an unknown refresh token")
	}
}

func TestLogout(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	resp, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "supersecret1"})
	if err != nil {
		t.Fatalf("Register error = %v", err)
	}

	if err := svc.Logout(resp.RefreshToken); err != nil {
		t.Fatalf("Logout error = %v", err)
	}
	if _, err := svc.Refresh(resp.RefreshToken); err == nil {
		t.Errorf("refresh token usable after logout")
	}

	// Logging out with no token is a no-op.
	if err := svc.Logout(""); err != nil {
		t.Errorf("Logout with empty token error = %v", err)
	}
}
