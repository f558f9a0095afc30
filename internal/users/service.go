package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"api_pos/internal/apperr"
)

// ErrInvalidCredentials is the only login failure the caller ever sees, so a
// wrong password and an unknown user are indistinguishable.
var ErrInvalidCredentials = errors.New("Credenciales inválidas")

var (
	ErrNameRequired     = errors.New("el nombre de usuario es obligatorio")
	ErrPasswordRequired = errors.New("la contraseña es obligatoria")
	ErrRoleRequired     = errors.New("el rol es obligatorio")
)

type Service struct {
	storage Storage
	logger  *zap.Logger
	cost    int
}

func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, logger: logger, cost: bcrypt.DefaultCost}
}

// Login checks name and password against the stored bcrypt hash.
func (s *Service) Login(ctx context.Context, name, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, apperr.Validation(ErrInvalidCredentials)
	}

	u, err := s.storage.FindByName(ctx, name)
	switch {
	case apperr.KindOf(err) == apperr.KindNotFound:
		s.logger.Warn("login for unknown user", zap.String("usuario", name))
		return nil, apperr.Validation(ErrInvalidCredentials)
	case err != nil:
		s.logger.Error("failed to load user", zap.String("usuario", name), zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login with wrong password", zap.String("usuario", name))
		return nil, apperr.Validation(ErrInvalidCredentials)
	}

	s.logger.Info("user logged in", zap.String("usuario", u.Name), zap.String("rol", u.Role))
	return u, nil
}

// Register hashes password and stores a new user.
func (s *Service) Register(ctx context.Context, name, password, role string) (*User, error) {
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)
	switch {
	case name == "":
		return nil, apperr.Validation(ErrNameRequired)
	case password == "":
		return nil, apperr.Validation(ErrPasswordRequired)
	case role == "":
		return nil, apperr.Validation(ErrRoleRequired)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Name: name, PasswordHash: string(hash), Role: role}
	if err := s.storage.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("id", u.ID), zap.String("usuario", u.Name))
	return u, nil
}
