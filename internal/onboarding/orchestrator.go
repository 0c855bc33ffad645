package onboarding

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/suteetoe/tenant-onboarding/internal/identity"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"github.com/suteetoe/tenant-onboarding/prometheus"
	"go.uber.org/zap"
)

// Branch names used in logs and metrics.
const (
	BranchResolveIdentity = "resolve_identity"
	BranchCreateUser      = "create_user"
	BranchStartPipeline   = "start_pipeline"
)

// TenancyResolver finds or creates the identity tenancy for a tenant.
type TenancyResolver interface {
	Resolve(ctx context.Context, plan model.Plan, companyName string) (string, error)
}

// UserProvisioner creates the tenant's first user.
type UserProvisioner interface {
	Create(ctx context.Context, tenancyID, email, tenantID, companyName string) error
}

// PipelineStarter starts dedicated-compute provisioning.
type PipelineStarter interface {
	Start(ctx context.Context, plan model.Plan) error
}

// Orchestrator registers tenants. Only the tenant record write is part of
// the call; identity setup and pipeline start run afterwards and their
// failures are logged and counted, never returned.
type Orchestrator struct {
	tenants   *repository.TenantStore
	resolver  TenancyResolver
	users     UserProvisioner
	pipelines PipelineStarter
	validator *Validator
	newID     func() string

	wg sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(tenants *repository.TenantStore, resolver TenancyResolver, users UserProvisioner,
	pipelines PipelineStarter, validator *Validator) *Orchestrator {
	return &Orchestrator{
		tenants:   tenants,
		resolver:  resolver,
		users:     users,
		pipelines: pipelines,
		validator: validator,
		newID:     uuid.NewString,
	}
}

// Register validates and stores the tenant, then starts the onboarding
// branches without waiting for them. Branches log through the request
// logger carried by ctx.
func (o *Orchestrator) Register(ctx context.Context, req RegisterRequest) (string, error) {
	reqLog := logger.FromContext(ctx)
	if err := o.validator.Validate(&req); err != nil {
		return "", err
	}
	plan, _ := model.ParsePlan(req.Plan)

	tenant := &model.Tenant{
		TenantID:    o.newID(),
		Email:       req.Email,
		Plan:        plan,
		CompanyName: req.CompanyName,
	}
	if err := o.tenants.Save(ctx, tenant); err != nil {
		reqLog.Error("Failed to store tenant", zap.String("tenant_id", tenant.TenantID), zap.Error(err))
		return "", err
	}
	prometheus.RecordRegistration(string(plan))

	placement := identity.PlacementFor(plan, tenant.CompanyName)
	log := reqLog.With(
		zap.String("tenant_id", tenant.TenantID),
		zap.String("plan", string(plan)),
		zap.String("routing_path", placement.RoutingPath))
	log.Info("Tenant registered")

	bg := context.WithoutCancel(ctx)
	o.spawn(func() { o.provisionIdentity(bg, log, tenant) })
	if plan.RequiresDedicatedCompute() {
		o.spawn(func() { o.startPipeline(bg, log, plan) })
	}

	return tenant.TenantID, nil
}

// Wait blocks until every branch started so far has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) spawn(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}

func (o *Orchestrator) provisionIdentity(ctx context.Context, log *zap.Logger, tenant *model.Tenant) {
	tenancyID, err := o.resolver.Resolve(ctx, tenant.Plan, tenant.CompanyName)
	if err != nil {
		o.branchFailed(log, BranchResolveIdentity, err)
		return
	}
	log = log.With(zap.String("identity_tenancy_id", tenancyID))

	if err := o.users.Create(ctx, tenancyID, tenant.Email, tenant.TenantID, tenant.CompanyName); err != nil {
		o.branchFailed(log, BranchCreateUser, err)
		return
	}
	log.Info("Tenant identity ready")
}

func (o *Orchestrator) startPipeline(ctx context.Context, log *zap.Logger, plan model.Plan) {
	if err := o.pipelines.Start(ctx, plan); err != nil {
		o.branchFailed(log, BranchStartPipeline, err)
	}
}

func (o *Orchestrator) branchFailed(log *zap.Logger, branch string, err error) {
	prometheus.RecordBranchFailure(branch)
	log.Error("Onboarding branch failed", zap.String("branch", branch), zap.Error(err))
}
