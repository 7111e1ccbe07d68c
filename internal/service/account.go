package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/surakshita/internal/auth"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/validation"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/sirupsen/logrus"
)

// errBadCredentials не различает неверное имя и неверный пароль
var errBadCredentials = fmt.Errorf("invalid username or password: %w", e.ErrUnauthenticated)

type accountService struct {
	repo   UserRepository
	logger *logrus.Logger
}

func NewAccountService(repo UserRepository, logger *logrus.Logger) AccountService {
	return &accountService{
		repo:   repo,
		logger: logger,
	}
}

// Register проверяет учётные данные и создает пользователя
func (s *accountService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	username := validation.Sanitize(in.Username, 0)
	email := validation.Sanitize(in.Email, 0)

	log := s.logger.WithFields(logrus.Fields{
		"service":  "account",
		"method":   "Register",
		"username": username,
	})
	log.Info("Attempting to register a new user")

	if err := validation.Credentials(username, email, in.Password, in.ConfirmPassword); err != nil {
		log.WithError(err).Warn("Rejected registration data")
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return nil, fmt.Errorf("service: could not hash password: %v: %w", err, e.ErrInternal)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, e.ErrConflict) {
			log.WithError(err).Warn("Username or email already registered")
			return nil, fmt.Errorf("service: username or email already exists: %w", err)
		}
		log.WithError(err).Error("Failed to create user in repository")
		return nil, fmt.Errorf("service: could not create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

// Login сверяет пароль; для неизвестного имени сравнение выполняется с фиктивным хэшем
func (s *accountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = validation.Sanitize(username, 0)

	log := s.logger.WithFields(logrus.Fields{
		"service":  "account",
		"method":   "Login",
		"username": username,
	})

	if username == "" || password == "" {
		return nil, e.Invalid("", "All fields are required.")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, e.ErrNotFound) {
			log.WithError(err).Error("Failed to get user from repository")
			return nil, fmt.Errorf("service: could not load user: %w", err)
		}
		auth.CheckPassword("", password)
		log.Warn("Login failed")
		return nil, errBadCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		log.Warn("Login failed")
		return nil, errBadCredentials
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return user, nil
}
