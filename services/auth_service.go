package services

import (
	"fmt"
	"log/slog"

	"diskuss/auth"
	"diskuss/domain"
	"diskuss/errors"
	"diskuss/repositories"
)

type IAuthService interface {
	Signup(username, password string) (Token, domain.User, error)
	Login(username, password string) (Token, domain.User, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	issuer *auth.TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users repositories.IUserRepository, issuer *auth.TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{users: users, issuer: issuer, log: log}
}

func (s *AuthService) Signup(username, password string) (Token, domain.User, error) {
	// Business rules first, before any expensive cryptographic work.
	valReq := auth.SignupRequest{Username: username, Password: password}
	if err := auth.ValidateSignup(valReq); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.CreateUser(username, hashedPassword)
	if err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := s.issuer.Generate(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(username, password string) (Token, domain.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(user.ID); err != nil {
		// Login still succeeds; the stamp is advisory.
		s.log.Warn("last-login update failed", "user_id", user.ID, "error", err)
	}

	token, err := s.issuer.Generate(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}
