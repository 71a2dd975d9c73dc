package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPassword = errors.New("invalid password")

const (
	tokenTTL     = 12 * time.Hour
	tokenIssuer  = "teetimes"
	adminSubject = "admin"
)

type authService struct {
	repo   ports.AuthRepo
	secret []byte
	now    func() time.Time
}

func NewAuthService(repo ports.AuthRepo, secret string) ports.AuthService {
	return &authService{
		repo:   repo,
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s *authService) Login(ctx context.Context, password string) (string, error) {
	hash, err := s.repo.GetPasswordHash(ctx)
	if err != nil {
		return "", fmt.Errorf("load admin password: %w", err)
	}
	if hash == "" || password == "" {
		return "", ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (bool, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return false, nil
	}
	return parsed.Valid, nil
}
