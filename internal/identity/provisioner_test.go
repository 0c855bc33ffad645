package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"go.uber.org/zap"
)

func TestProvisioner_Create(t *testing.T) {
	gw := newFakeGateway()
	p := NewProvisioner(gw, zap.NewNop(), WithSuppressedInvitation(true))

	err := p.Create(context.Background(), "pool-1", "b@x.com", "t-1", "Bob's Shop")
	require.NoError(t, err)

	require.Len(t, gw.userCalls, 1)
	in := gw.userCalls[0]
	assert.Equal(t, "b@x.com", in.Username)
	assert.True(t, in.SuppressInvitation)
	assert.Equal(t, map[string]string{
		"email":               "b@x.com",
		"email_verified":      "true",
		"custom:tenant-id":    "t-1",
		"custom:company-name": "Bob's Shop",
		"custom:user-role":    "TenantAdmin",
	}, in.Attributes)
}

func TestProvisioner_ExistingUserIsSuccess(t *testing.T) {
	gw := newFakeGateway()
	gw.users["pool-1"] = []User{{Username: "b@x.com"}}
	gw.createUserErr = ErrUserExists
	p := NewProvisioner(gw, zap.NewNop())

	err := p.Create(context.Background(), "pool-1", "b@x.com", "t-1", "Bob's Shop")
	assert.NoError(t, err)
	assert.False(t, gw.userCalls[0].SuppressInvitation)
}

func TestProvisioner_ExistsButNotListed(t *testing.T) {
	gw := newFakeGateway()
	gw.createUserErr = ErrUserExists
	p := NewProvisioner(gw, zap.NewNop())

	err := p.Create(context.Background(), "pool-1", "b@x.com", "t-1", "Bob's Shop")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUserCreation, apperror.KindOf(err))
}

func TestProvisioner_ProviderFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.createUserErr = errors.New("pool does not exist")
	p := NewProvisioner(gw, zap.NewNop())

	err := p.Create(context.Background(), "pool-9", "b@x.com", "t-1", "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUserCreation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "pool does not exist")
}
