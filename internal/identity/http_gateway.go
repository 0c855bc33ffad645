package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TokenSource mints bearer tokens for outbound service calls.
type TokenSource interface {
	GenerateServiceToken(service, audience, scope string) (string, error)
}

const identityAudience = "identity-provider"

// HTTPGateway talks to an identity provider over its REST API.
type HTTPGateway struct {
	client  *resty.Client
	tokens  TokenSource
	service string
	log     *zap.Logger
}

type apiError struct {
	Error string `json:"error"`
}

// NewHTTPGateway creates a gateway for the provider at baseURL
func NewHTTPGateway(baseURL string, timeout time.Duration, tokens TokenSource, service string, log *zap.Logger) *HTTPGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPGateway{
		client:  client,
		tokens:  tokens,
		service: service,
		log:     log,
	}
}

func (g *HTTPGateway) request(ctx context.Context) (*resty.Request, error) {
	token, err := g.tokens.GenerateServiceToken(g.service, identityAudience, "identity:write")
	if err != nil {
		return nil, fmt.Errorf("failed to mint service token: %w", err)
	}
	return g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&apiError{}), nil
}

func responseError(resp *resty.Response) error {
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		return fmt.Errorf("identity provider %s %s: %s: %s", resp.Request.Method, resp.Request.URL, resp.Status(), e.Error)
	}
	return fmt.Errorf("identity provider %s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status())
}

func (g *HTTPGateway) CreateTenancy(ctx context.Context, name string) (string, error) {
	req, err := g.request(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	resp, err := req.
		SetBody(map[string]string{"name": name}).
		SetResult(&result).
		Post("/tenancies")
	if err != nil {
		g.log.Error("Identity provider call failed", zap.String("operation", "create_tenancy"), zap.Error(err))
		return "", fmt.Errorf("failed to create tenancy: %w", err)
	}
	if resp.IsError() {
		return "", responseError(resp)
	}
	if result.ID == "" {
		return "", fmt.Errorf("identity provider returned an empty tenancy id for %q", name)
	}
	return result.ID, nil
}

func (g *HTTPGateway) CreateClient(ctx context.Context, tenancyID string) (string, error) {
	req, err := g.request(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		ClientID string `json:"client_id"`
	}
	resp, err := req.
		SetPathParam("tenancyID", tenancyID).
		SetResult(&result).
		Post("/tenancies/{tenancyID}/clients")
	if err != nil {
		g.log.Error("Identity provider call failed", zap.String("operation", "create_client"), zap.Error(err))
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	if resp.IsError() {
		return "", responseError(resp)
	}
	if result.ClientID == "" {
		return "", fmt.Errorf("identity provider returned an empty client id for %s", tenancyID)
	}
	return result.ClientID, nil
}

// CreateUser maps HTTP 409 to ErrUserExists.
func (g *HTTPGateway) CreateUser(ctx context.Context, tenancyID string, in CreateUserInput) error {
	req, err := g.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetPathParam("tenancyID", tenancyID).
		SetBody(in).
		Post("/tenancies/{tenancyID}/users")
	if err != nil {
		g.log.Error("Identity provider call failed", zap.String("operation", "create_user"), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return ErrUserExists
	}
	if resp.IsError() {
		return responseError(resp)
	}
	return nil
}

func (g *HTTPGateway) ListUsers(ctx context.Context, tenancyID string) ([]User, error) {
	req, err := g.request(ctx)
	if err != nil {
		return nil, err
	}

	var result struct {
		Users []User `json:"users"`
	}
	resp, err := req.
		SetPathParam("tenancyID", tenancyID).
		SetResult(&result).
		Get("/tenancies/{tenancyID}/users")
	if err != nil {
		g.log.Error("Identity provider call failed", zap.String("operation", "list_users"), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return result.Users, nil
}
