package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/dto"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/repository"
	"github.com/google/uuid"
)

type AuthService struct {
	users     *repository.UserRepository
	hasher    Hasher
	tokens    *TokenIssuer
	validator *signupValidator
	cfg       *config.Config
}

func NewAuthService(users *repository.UserRepository, hasher Hasher, tokens *TokenIssuer, cfg *config.Config) (*AuthService, error) {
	validator, err := newSignupValidator()
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		cfg:       cfg,
	}, nil
}

// Signup registers an unverified user and issues a session token straight
// away.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.MiddleName = strings.TrimSpace(req.MiddleName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if len(req.Password) > maxSecretBytes {
		return nil, invalid("Password must be at most 72 bytes")
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	taken, err = s.users.PhoneExists(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPhoneTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Role:       req.Role,
		Password:   hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID.String(), "role", user.Role)

	return s.session(&user)
}

// Login checks credentials. When RequireVerificationBeforeLogin is set, both
// contact channels must be verified first.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("All fields are required")
	}

	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !s.hasher.Compare(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if s.cfg.RequireVerificationBeforeLogin && !user.FullyVerified() {
		return nil, ErrAccountNotVerified
	}

	return s.session(user)
}

func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.IssueFor(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		User:  dto.NewUserResponse(user),
		Token: token,
	}, nil
}
