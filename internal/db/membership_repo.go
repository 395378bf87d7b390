package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/agora/internal/models"
)

// MembershipRepository provides membership, contributor request and ban operations
type MembershipRepository struct {
	*Repository
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(repo *Repository) *MembershipRepository {
	return &MembershipRepository{Repository: repo}
}

// GetCommunity retrieves a community by ID
func (r *MembershipRepository) GetCommunity(ctx context.Context, id int64) (*models.Community, error) {
	return NewCommunityRepository(r.Repository).GetByID(ctx, id)
}

// GetMembership retrieves the membership row for a pair
func (r *MembershipRepository) GetMembership(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	var m models.Membership
	found, err := r.first(ctx, &m, "community_id = ? AND user_id = ?", communityID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// CountByRole counts members holding role
func (r *MembershipRepository) CountByRole(ctx context.Context, communityID int64, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("community_id = ? AND role = ?", communityID, role).
		Count(&count).Error
	return count, err
}

// MemberIDs returns the IDs of every member holding one of roles
func (r *MembershipRepository) MemberIDs(ctx context.Context, communityID int64, roles ...models.Role) ([]int64, error) {
	var ids []int64
	q := r.db.WithContext(ctx).Model(&models.Membership{}).Where("community_id = ?", communityID)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	err := q.Order("user_id").Pluck("user_id", &ids).Error
	return ids, err
}

// List returns members with their user rows, optionally filtered by role
func (r *MembershipRepository) List(ctx context.Context, communityID int64, role models.Role, offset, limit int) ([]*models.Membership, error) {
	var list []*models.Membership
	q := r.db.WithContext(ctx).Preload("User").Where("community_id = ?", communityID)
	if role != models.RoleNone {
		q = q.Where("role = ?", role)
	}
	err := q.Order("created_at").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// Join inserts a membership row. It reports false when the pair already exists.
func (r *MembershipRepository) Join(ctx context.Context, m *models.Membership) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Leave deletes the membership row for a pair
func (r *MembershipRepository) Leave(ctx context.Context, communityID, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.Membership{})
	return res.RowsAffected > 0, res.Error
}

// IsBanned reports whether the user is banned from the community
func (r *MembershipRepository) IsBanned(ctx context.Context, communityID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ban{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// Ban removes every membership the user holds in the community, closes their
// pending contributor requests and records exactly one ban, all in one
// transaction. It returns the number of memberships removed and ErrDuplicate
// when the user is already banned.
func (r *MembershipRepository) Ban(ctx context.Context, ban *models.Ban) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", ban.CommunityID, ban.UserID).
			Delete(&models.Membership{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		now := time.Now().UTC()
		if err := tx.Model(&models.ContributorRequest{}).
			Where("community_id = ? AND user_id = ? AND status = ?", ban.CommunityID, ban.UserID, models.RequestPending).
			Updates(map[string]interface{}{
				"status":      models.RequestRejected,
				"reviewed_by": ban.BannedBy,
				"reviewed_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Create(ban).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return removed, nil
}

// Unban deletes the ban for a pair
func (r *MembershipRepository) Unban(ctx context.Context, communityID, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.Ban{})
	return res.RowsAffected > 0, res.Error
}

// ListBans lists bans of a community
func (r *MembershipRepository) ListBans(ctx context.Context, communityID int64) ([]*models.Ban, error) {
	var list []*models.Ban
	err := r.db.WithContext(ctx).Where("community_id = ?", communityID).Order("id DESC").Find(&list).Error
	return list, err
}

// CreateRequest inserts a contributor request
func (r *MembershipRepository) CreateRequest(ctx context.Context, req *models.ContributorRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

// GetRequest retrieves a contributor request by ID
func (r *MembershipRepository) GetRequest(ctx context.Context, id int64) (*models.ContributorRequest, error) {
	var req models.ContributorRequest
	found, err := r.first(ctx, &req, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &req, nil
}

// PendingRequest returns the user's open request in the community, if any
func (r *MembershipRepository) PendingRequest(ctx context.Context, communityID, userID int64) (*models.ContributorRequest, error) {
	var req models.ContributorRequest
	found, err := r.first(ctx, &req, "community_id = ? AND user_id = ? AND status = ?",
		communityID, userID, models.RequestPending)
	if err != nil || !found {
		return nil, err
	}
	return &req, nil
}

// ListRequests lists contributor requests, optionally filtered by status
func (r *MembershipRepository) ListRequests(ctx context.Context, communityID int64, status models.RequestStatus) ([]*models.ContributorRequest, error) {
	var list []*models.ContributorRequest
	q := r.db.WithContext(ctx).Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("id").Find(&list).Error
	return list, err
}

// ApproveRequest marks a pending request approved, promotes the requester to
// contributor and enqueues event, atomically. It reports false when the
// request was no longer pending.
func (r *MembershipRepository) ApproveRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64, event *models.OutboxEvent) (bool, error) {
	approved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := resolveRequest(tx, req.ID, models.RequestApproved, reviewerID)
		if err != nil || !ok {
			return err
		}

		member := &models.Membership{
			CommunityID: req.CommunityID,
			UserID:      req.UserID,
			Role:        models.RoleContributor,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(member).Error; err != nil {
			return err
		}

		if err := insertEvent(tx, event); err != nil {
			return err
		}
		approved = true
		return nil
	})
	return approved, err
}

// RejectRequest marks a pending request rejected
func (r *MembershipRepository) RejectRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64) (bool, error) {
	return resolveRequest(r.db.WithContext(ctx), req.ID, models.RequestRejected, reviewerID)
}

func resolveRequest(tx *gorm.DB, id int64, status models.RequestStatus, reviewerID int64) (bool, error) {
	res := tx.Model(&models.ContributorRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}
