package actor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/types"
)

// ErrProfileNotFound is returned when the authenticated user has no actor
// profile row for their role.
var ErrProfileNotFound = errors.New("no actor profile for user")

// Service resolves authenticated users to their marketplace actor rows.
// Ownership columns (request.planner_id, invoice issuer/payer, message
// sender/recipient) reference actor row ids, never auth subjects, so every
// marketplace handler resolves the caller through here first.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Resolve returns the id of the actor row owned by userID for the given role.
func (s *Service) Resolve(ctx context.Context, userID string, role types.ActorRole) (string, error) {
	var (
		id  string
		err error
	)
	switch role {
	case types.ActorRolePlanner:
		var row models.Planner
		err = s.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&row).Error
		id = row.ID
	case types.ActorRoleHelper:
		var row models.Helper
		err = s.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&row).Error
		id = row.ID
	case types.ActorRoleClient:
		var row models.Client
		err = s.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&row).Error
		id = row.ID
	default:
		return "", ErrProfileNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve actor profile: %w", err)
	}
	return id, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
