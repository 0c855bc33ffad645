package identity

import (
	"context"
	"strings"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolver returns the identity tenancy for a plan and company, creating it
// on first use of the routing path.
type Resolver struct {
	authInfo *repository.AuthInfoStore
	mappings *repository.StackMappingStore
	gateway  Gateway
	log      *zap.Logger

	inflight singleflight.Group
}

// NewResolver creates a Resolver
func NewResolver(authInfo *repository.AuthInfoStore, mappings *repository.StackMappingStore, gateway Gateway, log *zap.Logger) *Resolver {
	return &Resolver{
		authInfo: authInfo,
		mappings: mappings,
		gateway:  gateway,
		log:      log,
	}
}

// Resolve returns a non-empty tenancy id or a resolution error.
//
// Callers in this process that race on the same routing path share one
// lookup. Across processes the AuthInfo record is written insert-if-absent,
// so a loser adopts the winner's tenancy and its own is left orphaned.
func (r *Resolver) Resolve(ctx context.Context, plan model.Plan, companyName string) (string, error) {
	placement := PlacementFor(plan, companyName)

	v, err, _ := r.inflight.Do(placement.RoutingPath, func() (interface{}, error) {
		return r.resolve(ctx, placement)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, p Placement) (string, error) {
	const op = "Resolver.Resolve"
	log := r.log.With(zap.String("routing_path", p.RoutingPath), zap.String("isolation", string(p.Isolation)))

	existing, err := r.authInfo.Get(ctx, p.RoutingPath)
	if err == nil {
		prometheus.RecordResolution("hit")
		log.Debug("Identity tenancy found", zap.String("identity_tenancy_id", existing.IdentityTenancyID))
		if existing.UserPoolType == model.IsolationSiloed {
			r.checkMapping(ctx, log, existing)
		}
		return existing.IdentityTenancyID, nil
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		return "", apperror.E(apperror.KindResolution, op, err)
	}

	tenancyID, err := r.gateway.CreateTenancy(ctx, tenancyName(p))
	if err != nil {
		return "", apperror.E(apperror.KindResolution, op, err)
	}
	clientID, err := r.gateway.CreateClient(ctx, tenancyID)
	if err != nil {
		return "", apperror.E(apperror.KindResolution, op, err)
	}

	created, err := r.authInfo.Create(ctx, &model.AuthInfo{
		TenantPath:        p.RoutingPath,
		UserPoolType:      p.Isolation,
		IdentityTenancyID: tenancyID,
		ClientID:          clientID,
	})
	if err != nil {
		return "", apperror.E(apperror.KindResolution, op, err)
	}

	if !created {
		winner, err := r.authInfo.Get(ctx, p.RoutingPath)
		if err != nil {
			return "", apperror.E(apperror.KindResolution, op, err)
		}
		log.Warn("Lost identity tenancy creation race, tenancy orphaned",
			zap.String("orphaned_tenancy_id", tenancyID),
			zap.String("identity_tenancy_id", winner.IdentityTenancyID))
		prometheus.RecordResolution("converged")
		return winner.IdentityTenancyID, nil
	}

	if p.Isolation == model.IsolationSiloed {
		err := r.mappings.Save(ctx, &model.TenantStackMapping{
			TenantName:        p.RoutingPath,
			IdentityTenancyID: tenancyID,
			ClientID:          clientID,
			DeploymentStatus:  model.StatusProvisioning,
		})
		if err != nil {
			return "", apperror.E(apperror.KindResolution, op, err)
		}
	}

	prometheus.RecordResolution("created")
	log.Info("Identity tenancy created",
		zap.String("identity_tenancy_id", tenancyID),
		zap.String("client_id", clientID))
	return tenancyID, nil
}

// checkMapping reports a siloed tenancy whose stack mapping was never
// written. The mapping is only written on creation, so it needs an operator.
func (r *Resolver) checkMapping(ctx context.Context, log *zap.Logger, info *model.AuthInfo) {
	_, err := r.mappings.Get(ctx, info.TenantPath)
	switch {
	case err == nil:
	case apperror.Is(err, apperror.KindNotFound):
		log.Warn("Siloed identity tenancy has no stack mapping, reconcile manually",
			zap.String("identity_tenancy_id", info.IdentityTenancyID),
			zap.String("client_id", info.ClientID))
	default:
		log.Warn("Failed to check stack mapping", zap.Error(err))
	}
}

func tenancyName(p Placement) string {
	return strings.ToLower(string(p.Isolation)) + "-" + p.RoutingPath
}
