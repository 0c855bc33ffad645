package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/prometheus"
	"go.uber.org/zap"
)

const requestTokenLayout = "20060102150405"

// RequestToken derives the idempotency token for an execution started at t.
// Two starts within the same second share a token.
func RequestToken(t time.Time) string {
	return "requestToken-" + t.Format(requestTokenLayout)
}

// Trigger starts the provisioning pipeline for a plan.
type Trigger struct {
	engine    Engine
	pipelines map[model.Plan]string
	clock     clock.Clock
	log       *zap.Logger
}

// NewTrigger creates a Trigger. pipelines maps each plan with dedicated
// compute to its pipeline name; the map is copied.
func NewTrigger(engine Engine, pipelines map[model.Plan]string, clk clock.Clock, log *zap.Logger) *Trigger {
	table := make(map[model.Plan]string, len(pipelines))
	for plan, name := range pipelines {
		table[plan] = name
	}
	return &Trigger{engine: engine, pipelines: table, clock: clk, log: log}
}

// PipelineFor returns the pipeline name for plan.
func (t *Trigger) PipelineFor(plan model.Plan) (string, error) {
	name, ok := t.pipelines[plan]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoPipeline, plan)
	}
	return name, nil
}

// Start begins one execution. Failures are returned, never retried.
func (t *Trigger) Start(ctx context.Context, plan model.Plan) error {
	const op = "Trigger.Start"

	name, err := t.PipelineFor(plan)
	if err != nil {
		return apperror.E(apperror.KindPipelineStart, op, err)
	}

	token := RequestToken(t.clock.Now())
	if err := t.engine.StartExecution(ctx, name, token); err != nil {
		prometheus.RecordPipelineStart(name, "failed")
		return apperror.E(apperror.KindPipelineStart, op, err)
	}

	prometheus.RecordPipelineStart(name, "started")
	t.log.Info("Provisioning pipeline started",
		zap.String("pipeline", name),
		zap.String("plan", string(plan)),
		zap.String("request_token", token))
	return nil
}
