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

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type mockAuthRepo struct {
	staff   map[string]models.Staff
	byLogin map[string]string
	tokens  map[string]models.RefreshToken
	revoked []string
}

func (m *mockAuthRepo) FindByLogin(ctx context.Context, login string) (*models.Staff, error) {
	if code, ok := m.byLogin[login]; ok {
		s := m.staff[code]
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByCode(ctx context.Context, code string) (*models.Staff, error) {
	if s, ok := m.staff[code]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, code, passwordHash string, updatedAt time.Time) error {
	s := m.staff[code]
	s.PasswordHash = passwordHash
	m.staff[code] = s
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]models.RefreshToken)
	}
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for key, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			m.tokens[key] = t
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeStaffRefreshTokens(ctx context.Context, staffCode string) error {
	for key, t := range m.tokens {
		if t.StaffCode == staffCode {
			t.Revoked = true
			m.tokens[key] = t
		}
	}
	return nil
}

func newAuthRepo(t *testing.T) *mockAuthRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret42"), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAuthRepo{
		staff: map[string]models.Staff{
			"ENS20261234": {
				Code:         "ENS20261234",
				Name:         "Alice Mballa",
				Login:        "amballa",
				PasswordHash: string(hash),
				Sex:          "F",
				Phone:        "690000001",
				Role:         models.RoleTeacher,
			},
		},
		byLogin: map[string]string{"amballa": "ENS20261234"},
	}
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "suivie-academique",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ENS20261234", resp.Staff.Code)
	assert.Equal(t, models.RoleTeacher, resp.Staff.Role)
	assert.Equal(t, 1, len(repo.tokens))

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ENS20261234", claims.StaffCode)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthService(newAuthRepo(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownLogin(t *testing.T) {
	svc := newAuthService(newAuthRepo(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "ghost", Password: "secret42"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSingleSession(t *testing.T) {
	repo := newAuthRepo(t)
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "suivie-academique",
		SingleSession:      true,
	})

	first, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)

	assert.True(t, repo.tokens[first.RefreshToken].Revoked)
	assert.False(t, repo.tokens[second.RefreshToken].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, login.RefreshToken, resp.RefreshToken)

	used := repo.tokens[login.RefreshToken]
	assert.True(t, used.Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	repo := newAuthRepo(t)
	repo.tokens = map[string]models.RefreshToken{
		"stale": {ID: "t1", StaffCode: "ENS20261234", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Hour)},
	}
	svc := newAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "ENS20261234", models.LoginRequest{}))
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "ENS20261234", models.ChangePasswordRequest{OldPassword: "secret42", NewPassword: "newsecret"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "newsecret"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), "ENS20261234", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "another"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenBadSignature(t *testing.T) {
	svc := newAuthService(newAuthRepo(t))

	other := NewAuthService(newAuthRepo(t), nil, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Minute,
	})
	resp, err := other.Login(context.Background(), models.LoginRequest{Login: "amballa", Password: "secret42"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}
