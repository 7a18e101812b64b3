// Package auth is the credential gate: it hashes and checks passwords and
// mints, checks and clears session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// ErrDenied is returned when credentials or a session token do not match.
// It never says which part was wrong.
var ErrDenied = errors.New("access denied")

// ErrPasswordTooLong mirrors bcrypt's 72-byte input limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// tokenBytes is the amount of randomness in a session token.
const tokenBytes = 32

// UserStore is the slice of the store the gate needs.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetSessionToken(ctx context.Context, userID string, token *string) error
}

// Gate checks and issues credentials.
type Gate struct {
	users UserStore
	cost  int
}

// NewGate constructs a Gate hashing passwords with the given bcrypt cost.
func NewGate(users UserStore, cost int) *Gate {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Gate{users: users, cost: cost}
}

// SignUp stores a new user with a hashed password.
// It returns repository.ErrDuplicateEmail when the email is taken.
func (g *Gate) SignUp(ctx context.Context, username, picture, email, password string) (*model.User, error) {
	if _, err := g.users.GetUserByEmail(ctx, email); err == nil {
		return nil, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Picture:      picture,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := g.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// VerifyPassword reports whether password matches the user registered
// under email. Unknown emails are a plain false.
func (g *Gate) VerifyPassword(ctx context.Context, email, password string) (bool, error) {
	u, err := g.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil, nil
}

// VerifySessionToken reports whether token is the user's current session
// token. A user without a session never matches.
func (g *Gate) VerifySessionToken(ctx context.Context, userID, token string) (bool, error) {
	u, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user: %w", err)
	}
	return tokenMatches(u.SessionToken, token), nil
}

// Login checks the password and replaces the user's session token.
func (g *Gate) Login(ctx context.Context, email, password string) (model.Session, error) {
	ok, err := g.VerifyPassword(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	if !ok {
		return model.Session{}, ErrDenied
	}
	u, err := g.users.GetUserByEmail(ctx, email)
	if err != nil {
		return model.Session{}, fmt.Errorf("look up user: %w", err)
	}

	token, err := NewToken()
	if err != nil {
		return model.Session{}, err
	}
	if err := g.users.SetSessionToken(ctx, u.ID, &token); err != nil {
		return model.Session{}, fmt.Errorf("store session token: %w", err)
	}
	return model.Session{UserID: u.ID, Token: token, Username: u.Username, Picture: u.Picture}, nil
}

// Validate returns the session for a matching user id and token.
func (g *Gate) Validate(ctx context.Context, userID, token string) (model.Session, error) {
	u, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Session{}, ErrDenied
		}
		return model.Session{}, fmt.Errorf("look up user: %w", err)
	}
	if !tokenMatches(u.SessionToken, token) {
		return model.Session{}, ErrDenied
	}
	return model.Session{UserID: u.ID, Token: token, Username: u.Username, Picture: u.Picture}, nil
}

// Logout clears the session token when it matches. A mismatch is silently
// ignored so a stale client cannot end someone else's session.
func (g *Gate) Logout(ctx context.Context, userID, token string) error {
	ok, err := g.VerifySessionToken(ctx, userID, token)
	if err != nil || !ok {
		return err
	}
	if err := g.users.SetSessionToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// NewToken returns a hex-encoded 256-bit random session token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func tokenMatches(stored *string, given string) bool {
	if stored == nil || *stored == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(given)) == 1
}
