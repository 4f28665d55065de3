package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.Issue("u-1", models.RoleAdmin, "cse", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "cse", claims.DepartmentID)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret")
	issued := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	expired, err := svc.Issue("u-1", models.RoleAdmin, "", time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return issued.Add(time.Hour) }

	other, err := NewTokenService("other").Issue("u-1", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	anonymous, err := svc.Issue("", "", "", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":        expired,
		"wrong secret":   other,
		"unsigned":       unsigned,
		"missing claims": anonymous,
		"garbage":        "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}
