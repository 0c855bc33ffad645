package identity

import (
	"context"
	"errors"
)

// ErrUserExists is returned by a Gateway when the username is already taken
// in the tenancy.
var ErrUserExists = errors.New("user already exists")

// User is a user account inside an identity tenancy.
type User struct {
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes"`
	Status     string            `json:"status,omitempty"`
}

// CreateUserInput describes a user to create.
type CreateUserInput struct {
	Username           string            `json:"username"`
	Attributes         map[string]string `json:"attributes"`
	SuppressInvitation bool              `json:"suppress_invitation"`
}

// Gateway creates identity tenancies and the users inside them.
type Gateway interface {
	CreateTenancy(ctx context.Context, name string) (tenancyID string, err error)
	CreateClient(ctx context.Context, tenancyID string) (clientID string, err error)
	CreateUser(ctx context.Context, tenancyID string, in CreateUserInput) error
	ListUsers(ctx context.Context, tenancyID string) ([]User, error)
}
