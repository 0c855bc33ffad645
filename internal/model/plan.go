package model

import (
	"fmt"
	"strings"
)

// Plan is the subscription tier chosen at signup
type Plan string

const (
	PlanBasic    Plan = "Basic"
	PlanStandard Plan = "Standard"
	PlanPremium  Plan = "Premium"
)

// Plans lists every supported plan
var Plans = []Plan{PlanBasic, PlanStandard, PlanPremium}

// ParsePlan accepts a plan name in any letter case
func ParsePlan(s string) (Plan, error) {
	for _, p := range Plans {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown plan %q", s)
}

// RequiresDedicatedCompute reports whether onboarding triggers a provisioning pipeline
func (p Plan) RequiresDedicatedCompute() bool {
	return p != PlanBasic
}

// Isolation is the identity tenancy model for a plan
type Isolation string

const (
	IsolationPooled Isolation = "Pooled"
	IsolationSiloed Isolation = "Siloed"
)

// DeploymentStatus tracks a tenant's dedicated-compute rollout
type DeploymentStatus string

const (
	StatusProvisioning DeploymentStatus = "Provisioning"
	StatusComplete     DeploymentStatus = "Complete"
	StatusFailed       DeploymentStatus = "Failed"
)

// ParseDeploymentStatus validates a status name
func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	for _, st := range []DeploymentStatus{StatusProvisioning, StatusComplete, StatusFailed} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown deployment status %q", s)
}

// CanTransitionTo allows Provisioning -> Complete|Failed only
func (s DeploymentStatus) CanTransitionTo(next DeploymentStatus) bool {
	return s == StatusProvisioning && (next == StatusComplete || next == StatusFailed)
}
