package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

var testSecret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	user := model.User{ID: "U1", Email: "u1@example.com", Name: "User One"}

	token, err := Issue(testSecret, user, time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID())
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.False(t, claims.Expired(now))
	assert.True(t, claims.Expired(now.Add(2*time.Hour)))
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := ParseClaims("opaque-session-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotJWT))
}

func TestClaimsWithoutExpiry(t *testing.T) {
	c := &Claims{}
	assert.False(t, c.Expired(time.Now()))
}

func TestVerify(t *testing.T) {
	now := time.Now()
	token, err := Issue(testSecret, model.User{ID: "U1"}, time.Hour, now)
	require.NoError(t, err)

	claims, err := Verify(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID())

	_, err = Verify(token, []byte("other-secret"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	expired, err := Issue(testSecret, model.User{ID: "U1"}, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = Verify(expired, testSecret)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
}
