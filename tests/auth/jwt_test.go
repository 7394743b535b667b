package auth_test

import (
	"testing"
	"time"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-not-for-production"
	testIssuer = "repair-api-test"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       testSecret,
		TokenTTLMinutes: 60,
		Issuer:          testIssuer,
	}
}

func testStaff() *domain.Staff {
	return &domain.Staff{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		AuthID:      "auth0|jwt-tester",
		DisplayName: "JWT Tester",
		Email:       "jwt@fixpoint.no",
		Role:        domain.RoleManager,
		IsActive:    true,
	}
}

// signToken builds a token with the same claim shape the manager issues
func signToken(t *testing.T, secret string, method jwt.SigningMethod, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sid":   uuid.New().String(),
		"name":  "Forged Tester",
		"email": "forged@fixpoint.no",
		"role":  string(domain.RoleManager),
		"iss":   testIssuer,
		"sub":   "auth0|forged",
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(method, claims)
	var key interface{} = []byte(secret)
	if method == jwt.SigningMethodNone {
		key = jwt.UnsafeAllowNoneSignatureType
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := auth.NewTokenManager(testAuthConfig())
	require.NoError(t, err)

	staff := testStaff()
	token, err := tm.IssueToken(staff)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	staffCtx, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, staffCtx.StaffID)
	assert.Equal(t, staff.AuthID, staffCtx.AuthID)
	assert.Equal(t, staff.DisplayName, staffCtx.DisplayName)
	assert.Equal(t, staff.Email, staffCtx.Email)
	assert.Equal(t, domain.RoleManager, staffCtx.Role)
}

func TestTokenManager_MissingSecret(t *testing.T) {
	_, err := auth.NewTokenManager(&config.AuthConfig{TokenTTLMinutes: 60})
	assert.Error(t, err)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm, err := auth.NewTokenManager(testAuthConfig())
	require.NoError(t, err)

	token := signToken(t, testSecret, jwt.SigningMethodHS256,
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm, err := auth.NewTokenManager(testAuthConfig())
	require.NoError(t, err)

	token := signToken(t, "a-completely-different-secret", jwt.SigningMethodHS256,
		time.Now(), time.Now().Add(time.Hour))

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	otherCfg := testAuthConfig()
	otherCfg.Issuer = "someone-else"
	issuer, err := auth.NewTokenManager(otherCfg)
	require.NoError(t, err)

	verifier, err := auth.NewTokenManager(testAuthConfig())
	require.NoError(t, err)

	token, err := issuer.IssueToken(testStaff())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsUnsignedToken(t *testing.T) {
	tm, err := auth.NewTokenManager(testAuthConfig())
	require.NoError(t, err)

	token := signToken(t, "", jwt.SigningMethodNone,
		time.Now(), time.Now().Add(time.Hour))

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
