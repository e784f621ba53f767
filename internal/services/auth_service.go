package services

import (
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns credential mechanics: hashing and verification. Token
// issuance lives at the HTTP edge next to the JWT middleware.
type AuthService interface {
	HashPassword(plain string) (string, error)
	ComparePassword(hash, plain string) error
}

type authService struct{}

func NewAuthService() AuthService {
	return &authService{}
}

func (s *authService) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *authService) ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
