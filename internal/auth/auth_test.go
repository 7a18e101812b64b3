package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

func newTestGate(t *testing.T) (*Gate, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	return NewGate(store, bcrypt.MinCost), store
}

func TestSignUpHashesPassword(t *testing.T) {
	ctx := context.Background()
	gate, store := newTestGate(t)

	u, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	stored, err := store.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")))
	assert.Nil(t, stored.SessionToken)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	_, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = gate.SignUp(ctx, "other", "o.png", "ada@example.com", "pw")
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestSignUpPasswordTooLong(t *testing.T) {
	gate, _ := newTestGate(t)
	_, err := gate.SignUp(context.Background(), "ada", "p", "ada@example.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestLoginValidateLogout(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)
	u, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "pw")
	require.NoError(t, err)

	sess, err := gate.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.Equal(t, "ada", sess.Username)
	assert.Equal(t, "ada.png", sess.Picture)
	assert.Len(t, sess.Token, 2*tokenBytes)

	got, err := gate.Validate(ctx, u.ID, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	// A wrong token neither validates nor ends the session.
	_, err = gate.Validate(ctx, u.ID, "nope")
	assert.ErrorIs(t, err, ErrDenied)
	require.NoError(t, gate.Logout(ctx, u.ID, "nope"))
	ok, err := gate.VerifySessionToken(ctx, u.ID, sess.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, gate.Logout(ctx, u.ID, sess.Token))
	ok, err = gate.VerifySessionToken(ctx, u.ID, sess.Token)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = gate.Validate(ctx, u.ID, sess.Token)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestLoginReplacesToken(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)
	u, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "pw")
	require.NoError(t, err)

	first, err := gate.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	second, err := gate.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	ok, err := gate.VerifySessionToken(ctx, u.ID, first.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginDenied(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)
	_, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = gate.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrDenied)
	_, err = gate.Login(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestVerifySessionTokenWithoutSession(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)
	u, err := gate.SignUp(ctx, "ada", "ada.png", "ada@example.com", "pw")
	require.NoError(t, err)

	for _, token := range []string{"", "anything"} {
		ok, err := gate.VerifySessionToken(ctx, u.ID, token)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := gate.VerifySessionToken(ctx, "unknown", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewTokenIsRandom(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
