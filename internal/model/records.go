package model

import "fmt"

// Attribute names shared by every KV backend.
const (
	AttrTenantID               = "tenant_id"
	AttrEmail                  = "email"
	AttrPlan                   = "plan"
	AttrCompanyName            = "company_name"
	AttrTenantPath             = "tenant_path"
	AttrUserPoolType           = "user_pool_type"
	AttrIdentityTenancyID      = "identity_tenancy_id"
	AttrClientID               = "client_id"
	AttrTenantName             = "tenant_name"
	AttrDeploymentStatus       = "deployment_status"
	AttrStackName              = "stack_name"
	AttrELBURL                 = "elb_url"
	AttrPipelineServiceRoleArn = "pipeline_service_role_arn"
	AttrWorkloadIAMRoleArn     = "workload_iam_role_arn"
)

// Tenant is the canonical tenant record, keyed by TenantID
type Tenant struct {
	TenantID    string `json:"tenant_id"`
	Email       string `json:"email"`
	Plan        Plan   `json:"plan"`
	CompanyName string `json:"company_name"`
}

// ToItem encodes the record as KV attributes
func (t *Tenant) ToItem() map[string]string {
	return map[string]string{
		AttrTenantID:    t.TenantID,
		AttrEmail:       t.Email,
		AttrPlan:        string(t.Plan),
		AttrCompanyName: t.CompanyName,
	}
}

// TenantFromItem decodes a Tenant
func TenantFromItem(item map[string]string) (*Tenant, error) {
	if item[AttrTenantID] == "" {
		return nil, fmt.Errorf("tenant item missing %s", AttrTenantID)
	}
	return &Tenant{
		TenantID:    item[AttrTenantID],
		Email:       item[AttrEmail],
		Plan:        Plan(item[AttrPlan]),
		CompanyName: item[AttrCompanyName],
	}, nil
}

// AuthInfo maps a routing path to an identity tenancy. TenantPath is the key,
// so every Basic tenant shares the "app" record.
type AuthInfo struct {
	TenantPath        string    `json:"tenant_path"`
	UserPoolType      Isolation `json:"user_pool_type"`
	IdentityTenancyID string    `json:"identity_tenancy_id"`
	ClientID          string    `json:"client_id"`
}

func (a *AuthInfo) ToItem() map[string]string {
	return map[string]string{
		AttrTenantPath:        a.TenantPath,
		AttrUserPoolType:      string(a.UserPoolType),
		AttrIdentityTenancyID: a.IdentityTenancyID,
		AttrClientID:          a.ClientID,
	}
}

func AuthInfoFromItem(item map[string]string) (*AuthInfo, error) {
	if item[AttrIdentityTenancyID] == "" {
		return nil, fmt.Errorf("auth info item missing %s", AttrIdentityTenancyID)
	}
	return &AuthInfo{
		TenantPath:        item[AttrTenantPath],
		UserPoolType:      Isolation(item[AttrUserPoolType]),
		IdentityTenancyID: item[AttrIdentityTenancyID],
		ClientID:          item[AttrClientID],
	}, nil
}

// TenantStackMapping tracks a siloed tenant's deployment. TenantName holds the
// routing path, which is what the pipeline stages address the tenant by.
type TenantStackMapping struct {
	TenantName        string           `json:"tenant_name"`
	IdentityTenancyID string           `json:"identity_tenancy_id"`
	ClientID          string           `json:"client_id"`
	DeploymentStatus  DeploymentStatus `json:"deployment_status"`
}

func (m *TenantStackMapping) ToItem() map[string]string {
	return map[string]string{
		AttrTenantName:        m.TenantName,
		AttrIdentityTenancyID: m.IdentityTenancyID,
		AttrClientID:          m.ClientID,
		AttrDeploymentStatus:  string(m.DeploymentStatus),
	}
}

func TenantStackMappingFromItem(item map[string]string) (*TenantStackMapping, error) {
	if item[AttrTenantName] == "" && item[AttrIdentityTenancyID] == "" {
		return nil, fmt.Errorf("tenant stack mapping item is empty")
	}
	return &TenantStackMapping{
		TenantName:        item[AttrTenantName],
		IdentityTenancyID: item[AttrIdentityTenancyID],
		ClientID:          item[AttrClientID],
		DeploymentStatus:  DeploymentStatus(item[AttrDeploymentStatus]),
	}, nil
}

// StackMetadata describes the shared compute stack; written by infrastructure bootstrap.
type StackMetadata struct {
	StackName              string `json:"stack_name"`
	ELBURL                 string `json:"elb_url"`
	PipelineServiceRoleArn string `json:"pipeline_service_role_arn"`
	WorkloadIAMRoleArn     string `json:"workload_iam_role_arn"`
}

func (s *StackMetadata) ToItem() map[string]string {
	return map[string]string{
		AttrStackName:              s.StackName,
		AttrELBURL:                 s.ELBURL,
		AttrPipelineServiceRoleArn: s.PipelineServiceRoleArn,
		AttrWorkloadIAMRoleArn:     s.WorkloadIAMRoleArn,
	}
}

func StackMetadataFromItem(item map[string]string) (*StackMetadata, error) {
	if item[AttrStackName] == "" {
		return nil, fmt.Errorf("stack metadata item missing %s", AttrStackName)
	}
	return &StackMetadata{
		StackName:              item[AttrStackName],
		ELBURL:                 item[AttrELBURL],
		PipelineServiceRoleArn: item[AttrPipelineServiceRoleArn],
		WorkloadIAMRoleArn:     item[AttrWorkloadIAMRoleArn],
	}, nil
}
