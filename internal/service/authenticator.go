package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

// Authenticator verifies an identifier and secret and returns the account.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (models.User, error)
}

type databaseAuthenticator struct {
	users repository.UserRepository
}

// NewDatabaseAuthenticator checks secrets against bcrypt hashes stored on users.
func NewDatabaseAuthenticator(users repository.UserRepository) Authenticator {
	return &databaseAuthenticator{users: users}
}

func (a *databaseAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := a.users.FindByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(secret)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// HashSecret produces the stored form of a sign-in secret.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", newDomainError(ErrValidation, "secret must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
