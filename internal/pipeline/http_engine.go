package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TokenSource mints bearer tokens for outbound service calls.
type TokenSource interface {
	GenerateServiceToken(service, audience, scope string) (string, error)
}

const pipelineAudience = "pipeline-engine"

// HTTPEngine drives a pipeline engine over REST.
type HTTPEngine struct {
	client  *resty.Client
	tokens  TokenSource
	service string
	log     *zap.Logger
}

// NewHTTPEngine creates a client for the engine at baseURL
func NewHTTPEngine(baseURL string, timeout time.Duration, tokens TokenSource, service string, log *zap.Logger) *HTTPEngine {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPEngine{client: client, tokens: tokens, service: service, log: log}
}

func (e *HTTPEngine) post(ctx context.Context, operation, path string, pathParams map[string]string, body interface{}) error {
	token, err := e.tokens.GenerateServiceToken(e.service, pipelineAudience, "pipeline:execute")
	if err != nil {
		return fmt.Errorf("failed to mint service token: %w", err)
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParams(pathParams).
		SetBody(body).
		Post(path)
	if err != nil {
		e.log.Error("Pipeline engine call failed", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("pipeline engine %s: %w", operation, err)
	}
	if resp.IsError() {
		e.log.Error("Pipeline engine rejected call",
			zap.String("operation", operation),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", resp.String()))
		return fmt.Errorf("pipeline engine %s: %s", operation, resp.Status())
	}
	return nil
}

func (e *HTTPEngine) StartExecution(ctx context.Context, pipelineName, requestToken string) error {
	return e.post(ctx, "start_execution", "/pipelines/{name}/executions",
		map[string]string{"name": pipelineName},
		map[string]string{"clientRequestToken": requestToken})
}

func (e *HTTPEngine) ReportJobSuccess(ctx context.Context, jobID string, outputVariables map[string]string) error {
	return e.post(ctx, "report_job_success", "/jobs/{id}/success",
		map[string]string{"id": jobID},
		map[string]interface{}{"outputVariables": outputVariables})
}

func (e *HTTPEngine) ReportJobFailure(ctx context.Context, jobID string, detail FailureDetail) error {
	return e.post(ctx, "report_job_failure", "/jobs/{id}/failure",
		map[string]string{"id": jobID},
		map[string]interface{}{"failureDetails": detail})
}

// LogEngine only logs. It is used when no engine URL is configured.
type LogEngine struct {
	log *zap.Logger
}

func NewLogEngine(log *zap.Logger) *LogEngine {
	return &LogEngine{log: log}
}

func (e *LogEngine) StartExecution(ctx context.Context, pipelineName, requestToken string) error {
	e.log.Info("Pipeline execution requested",
		zap.String("pipeline", pipelineName),
		zap.String("request_token", requestToken))
	return nil
}

func (e *LogEngine) ReportJobSuccess(ctx context.Context, jobID string, outputVariables map[string]string) error {
	e.log.Info("Pipeline job succeeded", zap.String("job_id", jobID), zap.Any("output_variables", outputVariables))
	return nil
}

func (e *LogEngine) ReportJobFailure(ctx context.Context, jobID string, detail FailureDetail) error {
	e.log.Warn("Pipeline job failed",
		zap.String("job_id", jobID),
		zap.String("type", detail.Type),
		zap.String("message", detail.Message))
	return nil
}
