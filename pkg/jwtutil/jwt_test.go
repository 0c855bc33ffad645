package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateServiceToken(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1, Issuer: "tenant-onboarding"})

	token, err := j.GenerateServiceToken("pipeline-engine", "tenant-onboarding", "pipeline:jobs")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "pipeline-engine", claims.Service)
	assert.Equal(t, "pipeline:jobs", claims.Scope)
	assert.Equal(t, "tenant-onboarding", claims.Issuer)
}

func TestValidateToken_WrongKey(t *testing.T) {
	token, err := NewJWTUtil(&JWTConfig{SigningKey: "a", ExpirationHours: 1}).GenerateServiceToken("svc", "", "")
	require.NoError(t, err)

	_, err = NewJWTUtil(&JWTConfig{SigningKey: "b", ExpirationHours: 1}).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1})
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := j.GenerateServiceToken("svc", "", "")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateServiceToken_RequiresConfig(t *testing.T) {
	_, err := NewJWTUtil(nil).GenerateServiceToken("svc", "", "")
	assert.Error(t, err)
}
