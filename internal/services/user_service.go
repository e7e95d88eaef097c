package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

// ConflictError reports a duplicate email or username.
type ConflictError = diary.ConflictError

var (
	ErrEmailTaken    = &ConflictError{Message: "Email address already used"}
	ErrUsernameTaken = &ConflictError{Message: "Username already taken"}
)

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// AuthService handles account registration, login and profile updates.
type AuthService struct {
	users  UserStore
	tokens *TokenService
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := utils.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || in.Password == "" || username == "" {
		return AuthResult{}, utils.NewValidationError("", "All fields are required")
	}
	if err := utils.ValidateUsername(username); err != nil {
		return AuthResult{}, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}
	if err := utils.ValidateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if err := s.ensureFree(ctx, "", email, username); err != nil {
		return AuthResult{}, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user, err := s.users.Create(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		ProfileImage: models.DefaultProfileImage(email),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

// Login accepts a username or, when it contains "@", an email address.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return AuthResult{}, utils.NewValidationError("", "All fields are required")
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) && strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, utils.NormalizeEmail(identifier))
	}
	if errors.Is(err, ErrUserNotFound) {
		return AuthResult{}, diary.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, diary.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile merges the set fields into the account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, p models.ProfileUpdate) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if p.FirstName != nil {
		user.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		user.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		user.Phone = strings.TrimSpace(*p.Phone)
	}

	newEmail, newUsername := "", ""
	if p.Email != nil {
		email := utils.NormalizeEmail(*p.Email)
		if err := utils.ValidateEmail(email); err != nil {
			return models.User{}, err
		}
		if email != user.Email {
			newEmail = email
		}
		user.Email = email
	}
	if p.Username != nil {
		username := strings.TrimSpace(*p.Username)
		if err := utils.ValidateUsername(username); err != nil {
			return models.User{}, err
		}
		if !strings.EqualFold(username, user.Username) {
			newUsername = username
		}
		user.Username = username
	}
	if err := s.ensureFree(ctx, user.ID, newEmail, newUsername); err != nil {
		return models.User{}, err
	}

	user.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, user)
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

// ensureFree checks that email and username are unused by anyone but selfID.
// Empty values are skipped.
func (s *AuthService) ensureFree(ctx context.Context, selfID, email, username string) error {
	if email != "" {
		u, err := s.users.GetByEmail(ctx, email)
		if err == nil && u.ID != selfID {
			return ErrEmailTaken
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}
	if username != "" {
		u, err := s.users.GetByUsername(ctx, username)
		if err == nil && u.ID != selfID {
			return ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}
	return nil
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}
