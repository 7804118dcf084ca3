package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

func authConfig(t *testing.T) config.AuthConfig {
	hash, err := bcrypt.GenerateFromPassword([]byte("gateway-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AuthConfig{
		JWTSecret:      "test-signing-secret",
		JWTExpiration:  time.Hour,
		GatewayKeyHash: string(hash),
	}
}

func TestIssueTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(authConfig(t), nil, nil)

	resp, err := svc.IssueToken(models.TokenRequest{
		GatewayKey: "gateway-secret",
		UserID:     42,
		Username:   "anna",
		Channel:    "telegram",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "anna", claims.Username)
	assert.Equal(t, "telegram", claims.Channel)
}

func TestIssueTokenRejectsWrongGatewayKey(t *testing.T) {
	svc := NewAuthService(authConfig(t), nil, nil)

	resp, err := svc.IssueToken(models.TokenRequest{
		GatewayKey: "not-the-key",
		UserID:     42,
		Username:   "anna",
	})

	assert.Nil(t, resp)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestIssueTokenValidatesPayload(t *testing.T) {
	svc := NewAuthService(authConfig(t), nil, nil)

	_, err := svc.IssueToken(models.TokenRequest{GatewayKey: "gateway-secret"})

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewAuthService(authConfig(t), nil, nil)
	resp, err := issuer.IssueToken(models.TokenRequest{
		GatewayKey: "gateway-secret",
		UserID:     42,
		Username:   "anna",
	})
	require.NoError(t, err)

	other := authConfig(t)
	other.JWTSecret = "different-secret"
	verifier := NewAuthService(other, nil, nil)

	_, err = verifier.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
