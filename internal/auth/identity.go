// Package auth issues and validates the signed identity tokens that scope
// every task operation to an owner.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
)

// Identity authenticates credentials and resolves bearer tokens to owner
// ids. Handlers never look at claims themselves.
type Identity struct {
	users    repository.UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewIdentity(users repository.UserStore, secret []byte, tokenTTL time.Duration) *Identity {
	return &Identity{users: users, secret: secret, tokenTTL: tokenTTL}
}

// Authenticate checks email+password and returns a signed access token.
// Unknown email and wrong password produce the same error so the response
// does not reveal which one failed.
func (i *Identity) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := i.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.Unauthorized("Invalid credentials")
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.Unauthorized("Invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(i.tokenTTL).Unix(),
	})
	return token.SignedString(i.secret)
}

// ResolveToken validates a bearer token and extracts the owner id from its
// subject. Anything wrong with the token (signature, expiry, unparseable
// subject) comes back as the same "Invalid token" AuthError.
func (i *Identity) ResolveToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, models.Unauthorized("Invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, models.Unauthorized("Invalid token")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, models.Unauthorized("Invalid token")
	}
	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, models.Unauthorized("Invalid token")
	}
	return ownerID, nil
}
