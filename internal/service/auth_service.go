package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/repository"
	"github.com/classboardhq/classboard-backend/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type AuthService struct {
	userRepo         repository.UserRepositoryInterface
	refreshTokenRepo repository.RefreshTokenRepositoryInterface
	schoolRepo       repository.SchoolRepositoryInterface
}

func NewAuthService(
	userRepo repository.UserRepositoryInterface,
	refreshTokenRepo repository.RefreshTokenRepositoryInterface,
	schoolRepo repository.SchoolRepositoryInterface,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		schoolRepo:       schoolRepo,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
}

func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	input.Email = validation.NormalizeEmail(input.Email)
	input.Username = validation.NormalizeUsername(input.Username)

	if !validation.ValidateEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if !validation.ValidateUsername(input.Username) {
		return nil, errors.New("invalid username")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, errors.New("password too short")
	}

	role := models.UserRole(strings.ToLower(strings.TrimSpace(input.Role)))
	switch role {
	case "":
		role = models.UserRoleStudent
	case models.UserRoleStudent, models.UserRoleTeacher:
	default:
		// Admin accounts are provisioned out of band, never self-registered.
		return nil, errors.New("invalid role")
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, errors.New("email already exists")
	}
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Role:         role,
	}

	// Attach to a school when the email domain matches one.
	if s.schoolRepo != nil {
		if at := strings.LastIndex(input.Email, "@"); at >= 0 {
			if school, err := s.schoolRepo.FindByDomain(input.Email[at+1:]); err == nil {
				user.SchoolID = &school.ID
			}
		}
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.issueTokens(user)
}

// Refresh rotates the refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(refreshToken string) (*AuthResponse, error) {
	if s.refreshTokenRepo == nil {
		return nil, errors.New("refresh not configured")
	}

	hash := hashToken(refreshToken)
	stored, err := s.refreshTokenRepo.FindValidByHash(hash)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	if err := s.refreshTokenRepo.RevokeByHash(hash); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Logout(refreshToken string) error {
	if s.refreshTokenRepo == nil || refreshToken == "" {
		return nil
	}
	return s.refreshTokenRepo.RevokeByHash(hashToken(refreshToken))
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh := ""
	if s.refreshTokenRepo != nil {
		refresh, err = s.generateRefreshToken(user)
		if err != nil {
			return nil, err
		}
	}

	return &AuthResponse{
		Token:        token,
		RefreshToken: refresh,
		User:         user.ToResponse(),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.refreshTokenRepo.Create(record); err != nil {
		return "", err
	}
	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
