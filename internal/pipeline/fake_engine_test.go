package pipeline

import (
	"context"
	"sync"
)

type startCall struct {
	Pipeline string
	Token    string
}

type successCall struct {
	JobID     string
	Variables map[string]string
}

type failureCall struct {
	JobID  string
	Detail FailureDetail
}

type recordingEngine struct {
	mu        sync.Mutex
	starts    []startCall
	successes []successCall
	failures  []failureCall

	startErr   error
	successErr error
}

func (r *recordingEngine) StartExecution(ctx context.Context, pipelineName, requestToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, startCall{Pipeline: pipelineName, Token: requestToken})
	return r.startErr
}

func (r *recordingEngine) ReportJobSuccess(ctx context.Context, jobID string, vars map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, successCall{JobID: jobID, Variables: vars})
	return r.successErr
}

func (r *recordingEngine) ReportJobFailure(ctx context.Context, jobID string, detail FailureDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failureCall{JobID: jobID, Detail: detail})
	return nil
}
