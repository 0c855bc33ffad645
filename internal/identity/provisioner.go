package identity

import (
	"context"
	"errors"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"go.uber.org/zap"
)

// User attribute names written for the first tenant user.
const (
	UserAttrEmail         = "email"
	UserAttrEmailVerified = "email_verified"
	UserAttrTenantID      = "custom:tenant-id"
	UserAttrCompanyName   = "custom:company-name"
	UserAttrUserRole      = "custom:user-role"

	RoleTenantAdmin = "TenantAdmin"
)

// Provisioner creates a tenant's first user.
type Provisioner struct {
	gateway            Gateway
	suppressInvitation bool
	log                *zap.Logger
}

// ProvisionerOption configures a Provisioner
type ProvisionerOption func(*Provisioner)

// WithSuppressedInvitation controls whether the provider sends its welcome message.
func WithSuppressedInvitation(suppress bool) ProvisionerOption {
	return func(p *Provisioner) {
		p.suppressInvitation = suppress
	}
}

// NewProvisioner creates a Provisioner
func NewProvisioner(gateway Gateway, log *zap.Logger, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{gateway: gateway, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create adds the tenant admin user, using the email as username. A user that
// already exists in the tenancy counts as created.
func (p *Provisioner) Create(ctx context.Context, tenancyID, email, tenantID, companyName string) error {
	const op = "Provisioner.Create"

	err := p.gateway.CreateUser(ctx, tenancyID, CreateUserInput{
		Username: email,
		Attributes: map[string]string{
			UserAttrEmail:         email,
			UserAttrEmailVerified: "true",
			UserAttrTenantID:      tenantID,
			UserAttrCompanyName:   companyName,
			UserAttrUserRole:      RoleTenantAdmin,
		},
		SuppressInvitation: p.suppressInvitation,
	})
	if err == nil {
		p.log.Info("Tenant admin user created",
			zap.String("identity_tenancy_id", tenancyID),
			zap.String("tenant_id", tenantID))
		return nil
	}
	if !errors.Is(err, ErrUserExists) {
		return apperror.E(apperror.KindUserCreation, op, err)
	}

	users, err := p.gateway.ListUsers(ctx, tenancyID)
	if err != nil {
		return apperror.E(apperror.KindUserCreation, op, err)
	}
	for _, u := range users {
		if u.Username == email {
			p.log.Info("Tenant admin user already exists",
				zap.String("identity_tenancy_id", tenancyID),
				zap.String("tenant_id", tenantID))
			return nil
		}
	}
	return apperror.Errorf(apperror.KindUserCreation, op,
		"provider reported %s as existing but it is not listed in %s", email, tenancyID)
}
