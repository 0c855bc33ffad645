package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/prometheus"
	"go.uber.org/zap"
)

// Output variable names handed to later pipeline stages.
const (
	VarTenantPath             = "TENANT_PATH"
	VarIdentityTenancyID      = "IDENTITY_TENANCY_ID"
	VarClientID               = "CLIENT_ID"
	VarELBURL                 = "ELB_URL"
	VarPipelineServiceRoleArn = "PIPELINE_SERVICE_ROLE_ARN"
	VarWorkloadIAMRoleArn     = "WORKLOAD_IAM_ROLE_ARN"
	VarRegion                 = "REGION"
	VarResolvedAt             = "RESOLVED_AT"
)

// Job is one bridge invocation. TenantPath is optional; without it the
// bridge picks a provisioning tenant by scanning.
type Job struct {
	ID         string `json:"job_id"`
	TenantPath string `json:"tenant_path,omitempty"`
}

// Outcome is the result reported for a job.
type Outcome struct {
	JobID     string            `json:"job_id"`
	Succeeded bool              `json:"succeeded"`
	Variables map[string]string `json:"variables,omitempty"`
	Failure   *FailureDetail    `json:"failure,omitempty"`
	// ReportError is set when the engine could not be told the result.
	ReportError string `json:"report_error,omitempty"`
}

// Bridge republishes a provisioning tenant's identity and stack parameters
// as pipeline variables.
type Bridge struct {
	mappings  *repository.StackMappingStore
	metadata  *repository.StackMetadataStore
	engine    Engine
	stackName string
	region    string
	clock     clock.Clock
	log       *zap.Logger
}

// NewBridge creates a Bridge for the shared stack named stackName
func NewBridge(mappings *repository.StackMappingStore, metadata *repository.StackMetadataStore, engine Engine,
	stackName, region string, clk clock.Clock, log *zap.Logger) *Bridge {
	return &Bridge{
		mappings:  mappings,
		metadata:  metadata,
		engine:    engine,
		stackName: stackName,
		region:    region,
		clock:     clk,
		log:       log,
	}
}

// Run resolves the variables and reports success or failure to the engine.
// It does not return errors or panic; the outcome carries the result.
func (b *Bridge) Run(ctx context.Context, job Job) (out Outcome) {
	log := b.log.With(zap.String("job_id", job.ID), zap.String("tenant_path", job.TenantPath))
	out.JobID = job.ID

	defer func() {
		if r := recover(); r != nil {
			log.Error("Bridge job panicked", zap.Any("panic", r))
			out = b.fail(ctx, log, job, fmt.Errorf("panic: %v", r))
		}
	}()

	vars, err := b.resolve(ctx, job)
	if err != nil {
		return b.fail(ctx, log, job, err)
	}

	out.Succeeded = true
	out.Variables = vars
	if err := b.engine.ReportJobSuccess(ctx, job.ID, vars); err != nil {
		log.Error("Failed to report job success", zap.Error(err))
		out.ReportError = err.Error()
	}
	prometheus.RecordBridgeJob("succeeded")
	log.Info("Bridge job succeeded", zap.String("identity_tenancy_id", vars[VarIdentityTenancyID]))
	return out
}

func (b *Bridge) fail(ctx context.Context, log *zap.Logger, job Job, cause error) Outcome {
	detail := FailureDetail{Type: FailureJobFailed, Message: cause.Error()}
	out := Outcome{JobID: job.ID, Failure: &detail}

	if err := b.engine.ReportJobFailure(ctx, job.ID, detail); err != nil {
		log.Error("Failed to report job failure", zap.Error(err))
		out.ReportError = err.Error()
	}
	prometheus.RecordBridgeJob("failed")
	log.Warn("Bridge job failed", zap.Error(cause))
	return out
}

func (b *Bridge) resolve(ctx context.Context, job Job) (map[string]string, error) {
	const op = "Bridge.Run"

	mapping, err := b.findMapping(ctx, job.TenantPath)
	if err != nil {
		return nil, apperror.E(apperror.KindBridgeResolution, op, err)
	}

	stack, err := b.metadata.Get(ctx, b.stackName)
	if err != nil {
		return nil, apperror.E(apperror.KindBridgeResolution, op, err)
	}

	return map[string]string{
		VarTenantPath:             mapping.TenantName,
		VarIdentityTenancyID:      mapping.IdentityTenancyID,
		VarClientID:               mapping.ClientID,
		VarELBURL:                 stack.ELBURL,
		VarPipelineServiceRoleArn: stack.PipelineServiceRoleArn,
		VarWorkloadIAMRoleArn:     stack.WorkloadIAMRoleArn,
		VarRegion:                 b.region,
		VarResolvedAt:             b.clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// findMapping looks up path directly when given. Otherwise it scans for
// Provisioning rows and keeps the last one seen, which is ambiguous when
// several tenants provision at once.
func (b *Bridge) findMapping(ctx context.Context, path string) (*model.TenantStackMapping, error) {
	if path != "" {
		m, err := b.mappings.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if m.DeploymentStatus != model.StatusProvisioning {
			return nil, fmt.Errorf("tenant %q is %s, not %s", path, m.DeploymentStatus, model.StatusProvisioning)
		}
		return m, nil
	}

	rows, err := b.mappings.ListByStatus(ctx, model.StatusProvisioning)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no tenant stack mapping with status %s", model.StatusProvisioning)
	}
	if len(rows) > 1 {
		b.log.Warn("Several tenants provisioning, using the last one scanned", zap.Int("count", len(rows)))
	}
	return rows[len(rows)-1], nil
}
