package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User statuses of the local provider.
const (
	StatusForceChangePassword = "FORCE_CHANGE_PASSWORD"
)

// IdentityPool is a local identity tenancy.
type IdentityPool struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
}

func (IdentityPool) TableName() string {
	return "identity_pools"
}

// IdentityClient is an application client registered in a pool.
type IdentityClient struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	PoolID    string `gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time
}

func (IdentityClient) TableName() string {
	return "identity_clients"
}

// IdentityUser is a user of a pool. Usernames are unique per pool.
type IdentityUser struct {
	PoolID       string            `gorm:"primaryKey;type:varchar(64)"`
	Username     string            `gorm:"primaryKey;type:varchar(255)"`
	Attributes   datatypes.JSONMap `gorm:"type:jsonb"`
	PasswordHash string            `gorm:"type:varchar(255);not null"`
	Status       string            `gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time
}

func (IdentityUser) TableName() string {
	return "identity_users"
}

// LocalGateway is an identity provider backed by the service database, used
// when no external provider is configured.
type LocalGateway struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewLocalGateway creates a LocalGateway. The connection must translate
// driver errors so duplicate users surface as gorm.ErrDuplicatedKey.
func NewLocalGateway(db *gorm.DB, log *zap.Logger) *LocalGateway {
	return &LocalGateway{db: db, log: log}
}

// Models lists the tables the local provider needs.
func (g *LocalGateway) Models() []interface{} {
	return []interface{}{&IdentityPool{}, &IdentityClient{}, &IdentityUser{}}
}

func (g *LocalGateway) CreateTenancy(ctx context.Context, name string) (string, error) {
	pool := IdentityPool{ID: "pool-" + uuid.NewString(), Name: name}
	if err := g.db.WithContext(ctx).Create(&pool).Error; err != nil {
		return "", fmt.Errorf("failed to create identity pool: %w", err)
	}
	g.log.Info("Local identity pool created", zap.String("pool_id", pool.ID), zap.String("name", name))
	return pool.ID, nil
}

func (g *LocalGateway) CreateClient(ctx context.Context, tenancyID string) (string, error) {
	client := IdentityClient{ID: uuid.NewString(), PoolID: tenancyID}
	if err := g.db.WithContext(ctx).Create(&client).Error; err != nil {
		return "", fmt.Errorf("failed to create identity client: %w", err)
	}
	return client.ID, nil
}

// CreateUser stores the user with a random temporary password that must be
// changed on first sign-in.
func (g *LocalGateway) CreateUser(ctx context.Context, tenancyID string, in CreateUserInput) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash temporary password: %w", err)
	}

	attrs := make(datatypes.JSONMap, len(in.Attributes))
	for k, v := range in.Attributes {
		attrs[k] = v
	}

	user := IdentityUser{
		PoolID:       tenancyID,
		Username:     in.Username,
		Attributes:   attrs,
		PasswordHash: string(hash),
		Status:       StatusForceChangePassword,
	}
	if err := g.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create identity user: %w", err)
	}

	if in.SuppressInvitation {
		g.log.Info("Local identity user created, invitation suppressed", zap.String("pool_id", tenancyID))
	} else {
		g.log.Info("Local identity user created, invitation queued", zap.String("pool_id", tenancyID))
	}
	return nil
}

func (g *LocalGateway) ListUsers(ctx context.Context, tenancyID string) ([]User, error) {
	var rows []IdentityUser
	if err := g.db.WithContext(ctx).Where("pool_id = ?", tenancyID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list identity users: %w", err)
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		attrs := make(map[string]string, len(row.Attributes))
		for k, v := range row.Attributes {
			if s, ok := v.(string); ok {
				attrs[k] = s
			}
		}
		users = append(users, User{Username: row.Username, Attributes: attrs, Status: row.Status})
	}
	return users, nil
}
