package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	refreshTokens    map[string]*models.RefreshToken
	revokedUsers     []string
	lastLoginUpdated bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	now := time.Now()
	for _, token := range m.refreshTokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.TokenHash] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[tokenHash]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func hashedUser(t *testing.T, id, email, password string, role models.UserRole, schoolID *string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: id, Email: email, PasswordHash: string(hash), FullName: "Staff " + id, Role: role, SchoolID: schoolID, Active: true}
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "sma-fee-tracker",
	})
}

func TestAuthServiceLoginIssuesScopedToken(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "admin@sma.id", "password123", models.RoleAdmin, strPtr(schoolA)))
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@sma.id", Password: "password123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)
	require.NotNil(t, res.User.SchoolID)
	assert.Equal(t, schoolA, *res.User.SchoolID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, schoolA, claims.SchoolID)

	_, raw := repo.refreshTokens[res.RefreshToken]
	assert.False(t, raw, "refresh tokens are stored hashed")
	_, hashed := repo.refreshTokens[hashToken(res.RefreshToken)]
	assert.True(t, hashed)
}

func TestAuthServiceLoginInvalidatesUserListings(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "admin@sma.id", "password123", models.RoleAdmin, strPtr(schoolA)))
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAuthService(repo, cache, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", Issuer: "sma-fee-tracker"})

	ctx := context.Background()
	usersKey := Key("listing", ResourceUsers, "page1")
	schoolsKey := Key("listing", ResourceSchools, "page1")
	require.NoError(t, cacheRepo.Set(ctx, usersKey, []string{"stale"}, time.Minute))
	require.NoError(t, cacheRepo.Set(ctx, schoolsKey, []string{"kept"}, time.Minute))

	_, err := svc.Login(ctx, models.LoginRequest{Email: "admin@sma.id", Password: "password123"})
	require.NoError(t, err)

	assert.NotContains(t, cacheRepo.entries, usersKey)
	assert.Contains(t, cacheRepo.entries, schoolsKey)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	inactive := hashedUser(t, "u2", "gone@sma.id", "password123", models.RoleAdmin, strPtr(schoolA))
	inactive.Active = false
	repo := newMockAuthRepo(hashedUser(t, "u1", "admin@sma.id", "password123", models.RoleSuperAdmin, nil), inactive)
	svc := newAuthService(repo)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "admin@sma.id", Password: "wrong-password"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@sma.id", Password: "password123"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "gone@sma.id", Password: "password123"})
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "admin@sma.id", "password123", models.RoleSuperAdmin, nil))
	svc := newAuthService(repo)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "admin@sma.id", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: refreshed.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newMockAuthRepo(
		hashedUser(t, "u1", "a@sma.id", "password123", models.RoleSuperAdmin, nil),
		hashedUser(t, "u2", "b@sma.id", "password123", models.RoleSuperAdmin, nil),
	)
	svc := newAuthService(repo)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "a@sma.id", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(ctx, "u2", models.LogoutRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(ctx, "u1", models.LogoutRequest{RefreshToken: login.RefreshToken}))
	require.NoError(t, svc.Logout(ctx, "u1", models.LogoutRequest{RefreshToken: login.RefreshToken}))

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@sma.id", "password123", models.RoleAdmin, strPtr(schoolA)))
	svc := newAuthService(repo)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "bad-password", NewPassword: "newpassword1"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "password123"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))
	assert.Equal(t, []string{"u1"}, repo.revokedUsers)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "a@sma.id", Password: "newpassword1"})
	require.NoError(t, err)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@sma.id", "password123", models.RoleSuperAdmin, nil))
	login, err := newAuthService(repo).Login(context.Background(), models.LoginRequest{Email: "a@sma.id", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "sma-fee-tracker"})
	_, err = other.ValidateToken(login.AccessToken)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
