package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"go.uber.org/zap"
)

const testStack = "eks-saas-stack"

type bridgeFixture struct {
	mappings *repository.StackMappingStore
	metadata *repository.StackMetadataStore
	engine   *recordingEngine
	bridge   *Bridge
}

func newBridgeFixture(t *testing.T) *bridgeFixture {
	kv := kvstore.NewMemoryStore()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	f := &bridgeFixture{
		mappings: repository.NewStackMappingStore(kv, "TenantStackMapping"),
		metadata: repository.NewStackMetadataStore(kv, "StackMetadata"),
		engine:   &recordingEngine{},
	}
	f.bridge = NewBridge(f.mappings, f.metadata, f.engine, testStack, "us-west-2", clk, zap.NewNop())
	return f
}

func (f *bridgeFixture) seedStack(t *testing.T) {
	require.NoError(t, f.metadata.Save(context.Background(), &model.StackMetadata{
		StackName:              testStack,
		ELBURL:                 "http://shared-elb.example.com",
		PipelineServiceRoleArn: "arn:aws:iam::1:role/pipeline",
		WorkloadIAMRoleArn:     "arn:aws:iam::1:role/workload",
	}))
}

func (f *bridgeFixture) seedMapping(t *testing.T, path string, status model.DeploymentStatus) {
	require.NoError(t, f.mappings.Save(context.Background(), &model.TenantStackMapping{
		TenantName:        path,
		IdentityTenancyID: "pool-" + path,
		ClientID:          "client-" + path,
		DeploymentStatus:  status,
	}))
}

func TestBridge_Success(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "bobsshop", model.StatusProvisioning)

	out := f.bridge.Run(context.Background(), Job{ID: "job-1"})

	assert.True(t, out.Succeeded)
	assert.Nil(t, out.Failure)
	require.Len(t, f.engine.successes, 1)
	assert.Empty(t, f.engine.failures)

	call := f.engine.successes[0]
	assert.Equal(t, "job-1", call.JobID)
	assert.Equal(t, map[string]string{
		VarTenantPath:             "bobsshop",
		VarIdentityTenancyID:      "pool-bobsshop",
		VarClientID:               "client-bobsshop",
		VarELBURL:                 "http://shared-elb.example.com",
		VarPipelineServiceRoleArn: "arn:aws:iam::1:role/pipeline",
		VarWorkloadIAMRoleArn:     "arn:aws:iam::1:role/workload",
		VarRegion:                 "us-west-2",
		VarResolvedAt:             "2024-05-01T12:00:00Z",
	}, call.Variables)
	assert.Equal(t, call.Variables, out.Variables)
}

func TestBridge_NoProvisioningTenant(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "acme", model.StatusComplete)

	var out Outcome
	assert.NotPanics(t, func() {
		out = f.bridge.Run(context.Background(), Job{ID: "job-2"})
	})

	assert.False(t, out.Succeeded)
	assert.Empty(t, f.engine.successes)
	require.Len(t, f.engine.failures, 1)
	assert.Equal(t, "job-2", f.engine.failures[0].JobID)
	assert.Equal(t, FailureJobFailed, f.engine.failures[0].Detail.Type)
	assert.Contains(t, f.engine.failures[0].Detail.Message, "Provisioning")
}

func TestBridge_MissingStackMetadata(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedMapping(t, "bobsshop", model.StatusProvisioning)

	out := f.bridge.Run(context.Background(), Job{ID: "job-3"})

	assert.False(t, out.Succeeded)
	require.Len(t, f.engine.failures, 1)
	assert.Contains(t, out.Failure.Message, testStack)
}

func TestBridge_ScanTakesLastMatch(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "first", model.StatusProvisioning)
	f.seedMapping(t, "second", model.StatusProvisioning)

	out := f.bridge.Run(context.Background(), Job{ID: "job-4"})

	require.True(t, out.Succeeded)
	assert.Equal(t, "second", out.Variables[VarTenantPath])
}

func TestBridge_TenantPathSelectsRow(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "first", model.StatusProvisioning)
	f.seedMapping(t, "second", model.StatusProvisioning)

	out := f.bridge.Run(context.Background(), Job{ID: "job-5", TenantPath: "first"})

	require.True(t, out.Succeeded)
	assert.Equal(t, "pool-first", out.Variables[VarIdentityTenancyID])
}

func TestBridge_TenantPathNotProvisioning(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "acme", model.StatusFailed)

	out := f.bridge.Run(context.Background(), Job{ID: "job-6", TenantPath: "acme"})

	assert.False(t, out.Succeeded)
	require.Len(t, f.engine.failures, 1)
}

func TestBridge_ReportFailureIsRecorded(t *testing.T) {
	f := newBridgeFixture(t)
	f.seedStack(t)
	f.seedMapping(t, "bobsshop", model.StatusProvisioning)
	f.engine.successErr = errors.New("job already completed")

	out := f.bridge.Run(context.Background(), Job{ID: "job-7"})

	assert.True(t, out.Succeeded)
	assert.Equal(t, "job already completed", out.ReportError)
}
