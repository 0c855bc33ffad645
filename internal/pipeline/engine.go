package pipeline

import (
	"context"
	"errors"
)

// ErrNoPipeline is returned when a plan has no provisioning pipeline configured.
var ErrNoPipeline = errors.New("no pipeline configured for plan")

// Failure types reported to the engine.
const (
	FailureJobFailed = "JobFailed"
)

// FailureDetail is the error payload of a failed job.
type FailureDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Engine is the provisioning pipeline service.
type Engine interface {
	StartExecution(ctx context.Context, pipelineName, requestToken string) error
	ReportJobSuccess(ctx context.Context, jobID string, outputVariables map[string]string) error
	ReportJobFailure(ctx context.Context, jobID string, detail FailureDetail) error
}
