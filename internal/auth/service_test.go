package auth

import (
	"testing"
	"time"

	"medcare-admin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService("test-secret", time.Hour, bcrypt.MinCost)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()
	principal := &model.Principal{ID: "u-1", Email: "admin@medcare.test", Name: "Admin", Role: model.RoleAdmin}

	token, err := svc.GenerateToken(principal)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
	assert.True(t, got.IsAdmin())
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateToken(&model.Principal{ID: "u-1", Role: model.RoleCustomer})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewService("other-secret", time.Hour, bcrypt.MinCost).
		GenerateToken(&model.Principal{ID: "u-1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := &model.JWTClaims{UserID: "u-1", Role: model.RoleAdmin}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	svc := newTestService()

	hash, err := svc.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, svc.ComparePassword(hash, "s3cret!"))
	assert.ErrorIs(t, svc.ComparePassword(hash, "wrong"), ErrPasswordMismatch)
}
