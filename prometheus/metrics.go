package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Registrations accepted (tenant record stored)
	RegistrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_registrations_total",
			Help: "Total number of tenant registrations whose tenant record was stored",
		},
		[]string{"plan"},
	)

	// Failed asynchronous onboarding branches; these are invisible to the caller
	BranchFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_branch_failures_total",
			Help: "Total number of failed onboarding branches",
		},
		[]string{"branch"}, // "resolve_identity", "create_user", "start_pipeline"
	)

	// Identity tenancy resolutions by outcome
	ResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "Total number of identity tenancy resolutions",
		},
		[]string{"result"}, // "hit", "created", "converged"
	)

	// Pipeline executions started
	PipelineStartCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_starts_total",
			Help: "Total number of provisioning pipeline start attempts",
		},
		[]string{"pipeline", "result"},
	)

	// Bridge job outcomes
	BridgeJobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_bridge_jobs_total",
			Help: "Total number of pipeline parameter bridge jobs",
		},
		[]string{"result"}, // "succeeded", "failed"
	)
)

// Histogram metrics
var (
	// KV operation duration
	KVOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_operation_duration_seconds",
			Help:    "Duration of key-value store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

func init() {
	prometheus.MustRegister(RegistrationCounter)
	prometheus.MustRegister(BranchFailureCounter)
	prometheus.MustRegister(ResolutionCounter)
	prometheus.MustRegister(PipelineStartCounter)
	prometheus.MustRegister(BridgeJobCounter)
	prometheus.MustRegister(KVOperationDuration)
}

// TrackKVOperation measures a store operation; use as
// defer prometheus.TrackKVOperation("postgres", "get")()
func TrackKVOperation(backend, operation string) func() {
	start := time.Now()
	return func() {
		KVOperationDuration.With(prometheus.Labels{
			"backend":   backend,
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// RecordRegistration records a stored tenant registration
func RecordRegistration(plan string) {
	RegistrationCounter.With(prometheus.Labels{"plan": plan}).Inc()
}

// RecordBranchFailure records a failed onboarding branch
func RecordBranchFailure(branch string) {
	BranchFailureCounter.With(prometheus.Labels{"branch": branch}).Inc()
}

// RecordResolution records an identity tenancy resolution outcome
func RecordResolution(result string) {
	ResolutionCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordPipelineStart records a pipeline start attempt
func RecordPipelineStart(pipeline, result string) {
	PipelineStartCounter.With(prometheus.Labels{"pipeline": pipeline, "result": result}).Inc()
}

// RecordBridgeJob records a bridge job outcome
func RecordBridgeJob(result string) {
	BridgeJobCounter.With(prometheus.Labels{"result": result}).Inc()
}
