package identity

import (
	"context"
	"fmt"
	"sync"
)

// fakeGateway records calls and hands out sequential ids.
type fakeGateway struct {
	mu sync.Mutex

	tenancies []string
	clients   []string
	users     map[string][]User
	userCalls []CreateUserInput

	createTenancyErr error
	createUserErr    error
	listUsersErr     error

	// onCreateTenancy runs outside the lock before the tenancy is recorded.
	onCreateTenancy func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: make(map[string][]User)}
}

func (f *fakeGateway) CreateTenancy(ctx context.Context, name string) (string, error) {
	if f.onCreateTenancy != nil {
		f.onCreateTenancy()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTenancyErr != nil {
		return "", f.createTenancyErr
	}
	id := fmt.Sprintf("pool-%d", len(f.tenancies)+1)
	f.tenancies = append(f.tenancies, name)
	return id, nil
}

func (f *fakeGateway) CreateClient(ctx context.Context, tenancyID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "client-" + tenancyID
	f.clients = append(f.clients, id)
	return id, nil
}

func (f *fakeGateway) CreateUser(ctx context.Context, tenancyID string, in CreateUserInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls = append(f.userCalls, in)
	if f.createUserErr != nil {
		return f.createUserErr
	}
	f.users[tenancyID] = append(f.users[tenancyID], User{Username: in.Username, Attributes: in.Attributes})
	return nil
}

func (f *fakeGateway) ListUsers(ctx context.Context, tenancyID string) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listUsersErr != nil {
		return nil, f.listUsersErr
	}
	return append([]User(nil), f.users[tenancyID]...), nil
}

func (f *fakeGateway) tenancyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tenancies)
}
