// Package membership answers "what is this user in this community".
package membership

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/logging"
)

// Store is the data the resolver reads. Both lookups return nil, nil when the
// row does not exist.
type Store interface {
	GetCommunity(ctx context.Context, id int64) (*models.Community, error)
	GetMembership(ctx context.Context, communityID, userID int64) (*models.Membership, error)
}

// RoleCache is an optional short-lived cache of resolved roles
type RoleCache interface {
	GetRole(ctx context.Context, communityID, userID int64) (models.Role, bool)
	SetRole(ctx context.Context, communityID, userID int64, role models.Role)
	InvalidateRole(ctx context.Context, communityID, userID int64)
}

// ResolveRole applies role precedence. The community's creator is always
// reported as creator, whatever their membership row says.
func ResolveRole(community *models.Community, userID int64, m *models.Membership) models.Role {
	if community == nil {
		return models.RoleNone
	}
	if community.CreatorID == userID {
		return models.RoleCreator
	}
	if m == nil || !m.Role.Valid() {
		return models.RoleNone
	}
	return m.Role
}

// CanReview reports whether role may vote on posts and contributions
func CanReview(role models.Role) bool {
	return role.Rank() >= models.RoleContributor.Rank()
}

// CanModerate reports whether role may manage members and requests
func CanModerate(role models.Role) bool {
	return role == models.RoleCreator
}

// IsMember reports whether role belongs to any member
func IsMember(role models.Role) bool {
	return role.Valid()
}

// Resolver resolves community roles
type Resolver struct {
	store  Store
	cache  RoleCache
	logger *zap.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(store Store, cache RoleCache) *Resolver {
	return &Resolver{
		store:  store,
		cache:  cache,
		logger: logging.WithComponent("membership"),
	}
}

// Role returns the user's role in the community. A missing community is
// reported as NotFound rather than as an authorization failure.
func (r *Resolver) Role(ctx context.Context, communityID, userID int64) (models.Role, error) {
	if r.cache != nil {
		if role, ok := r.cache.GetRole(ctx, communityID, userID); ok {
			return role, nil
		}
	}

	community, err := r.store.GetCommunity(ctx, communityID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("load community %d: %w", communityID, err)
	}
	if community == nil {
		return models.RoleNone, errs.E(errs.NotFound, "community not found")
	}

	var m *models.Membership
	if community.CreatorID != userID {
		m, err = r.store.GetMembership(ctx, communityID, userID)
		if err != nil {
			return models.RoleNone, fmt.Errorf("load membership: %w", err)
		}
	}

	role := ResolveRole(community, userID, m)
	if r.cache != nil {
		r.cache.SetRole(ctx, communityID, userID, role)
	}
	return role, nil
}

// Require returns the user's role, or Forbidden when it ranks below min.
func (r *Resolver) Require(ctx context.Context, communityID, userID int64, min models.Role) (models.Role, error) {
	role, err := r.Role(ctx, communityID, userID)
	if err != nil {
		return role, err
	}
	if role.Rank() < min.Rank() {
		r.logger.Debug("role check failed",
			zap.Int64("community_id", communityID),
			zap.Int64("user_id", userID),
			zap.String("role", string(role)),
			zap.String("required", string(min)))
		return role, errs.Ef(errs.Forbidden, "requires %s role", min)
	}
	return role, nil
}

// Forget drops any cached role for the pair. Call it after a membership change.
func (r *Resolver) Forget(ctx context.Context, communityID, userID int64) {
	if r.cache != nil {
		r.cache.InvalidateRole(ctx, communityID, userID)
	}
}
