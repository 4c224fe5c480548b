package auth

import (
	"context"
	"testing"
	"time"

	"microblog/internal/database"
	"microblog/internal/pkg/jwt"
	"microblog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))

	users := repository.NewUserRepository(db)
	jwtSvc := jwt.New("test-secret", 15*time.Minute)
	return NewService(users, jwtSvc, "test-pepper", 24*time.Hour)
}

func register(t *testing.T, svc *Service, username, password string) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
}

func TestRegister_HidesPasswordHash(t *testing.T) {
	svc := testService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{Username: "Alice", Password: "password123"})

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "ALICE", Password: "different456"})

	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestLogin_IssuesBothTokens(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")

	res, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "password123"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Empty(t, res.User.PasswordHash)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")

	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong-password"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := testService(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "password123"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshSession_RotatesToken(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")
	login, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	rotated, err := svc.RefreshSession(context.Background(), login.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The rotated token works; the old one is spent.
	_, err = svc.RefreshSession(context.Background(), rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshSession_ReuseRevokesFamily(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")
	login, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	rotated, err := svc.RefreshSession(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	// Replaying the spent token trips reuse detection...
	_, err = svc.RefreshSession(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)

	// ...which burns the whole family, including the latest token.
	_, err = svc.RefreshSession(context.Background(), rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
}

func TestRefreshSession_UnknownToken(t *testing.T) {
	svc := testService(t)

	_, err := svc.RefreshSession(context.Background(), "never-issued")

	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshSession_ExpiredToken(t *testing.T) {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))

	users := repository.NewUserRepository(db)
	jwtSvc := jwt.New("test-secret", 15*time.Minute)
	svc := NewService(users, jwtSvc, "test-pepper", -time.Minute)

	register(t, svc, "alice", "password123")
	login, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.RefreshSession(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc := testService(t)
	register(t, svc, "alice", "password123")
	login, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))

	_, err = svc.RefreshSession(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
}

func TestLogout_UnknownTokenIsNoOp(t *testing.T) {
	svc := testService(t)

	assert.NoError(t, svc.Logout(context.Background(), "never-issued"))
}

func TestGetCurrentUser(t *testing.T) {
	svc := testService(t)
	user, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	got, err := svc.GetCurrentUser(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.PasswordHash)
}
