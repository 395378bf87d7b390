package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
	"github.com/steemit/agora/internal/outbox"
	"github.com/steemit/agora/pkg/logging"
)

var communityNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// CommunityInput holds the fields of a community
type CommunityInput struct {
	Name        string
	Title       string
	Description string
	AvatarURL   string
}

// CommunityService manages communities and their membership
type CommunityService struct {
	communities CommunityStore
	members     MembershipStore
	users       UserStore
	roles       Roles
	notifier    Notifier
	logger      *zap.Logger
}

// NewCommunityService creates a community service
func NewCommunityService(communities CommunityStore, members MembershipStore, users UserStore, roles Roles, notifier Notifier) *CommunityService {
	return &CommunityService{
		communities: communities,
		members:     members,
		users:       users,
		roles:       roles,
		notifier:    notifier,
		logger:      logging.WithComponent("communities"),
	}
}

// Create creates a community owned by creatorID
func (s *CommunityService) Create(ctx context.Context, creatorID int64, in CommunityInput) (*models.Community, error) {
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if !communityNamePattern.MatchString(name) {
		return nil, errs.E(errs.Invalid, "name must be 2-64 lowercase letters, digits or dashes")
	}
	if len(in.Title) > 128 || len(in.Description) > 5000 {
		return nil, errs.E(errs.Invalid, "title or description too long")
	}

	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, internal(err, "load creator")
	}
	if creator == nil {
		return nil, errs.E(errs.Unauthenticated, "account no longer exists")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = name
	}
	community := &models.Community{
		Name:        name,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		AvatarURL:   strings.TrimSpace(in.AvatarURL),
		CreatorID:   creatorID,
	}

	err = s.communities.Create(ctx, community, func(c *models.Community) *models.OutboxEvent {
		return outbox.NewRoleEvent(creator, c.ID, models.RoleCreator)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, errs.E(errs.Conflict, "community name already taken")
		}
		return nil, internal(err, "create community")
	}

	s.roles.Forget(ctx, community.ID, creatorID)
	s.logger.Info("community created", zap.Int64("community_id", community.ID), zap.String("name", name))
	return community, nil
}

// Get returns a community
func (s *CommunityService) Get(ctx context.Context, id int64) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err, "load community")
	}
	if community == nil {
		return nil, errs.E(errs.NotFound, "community not found")
	}
	return community, nil
}

// List returns communities, newest first
func (s *CommunityService) List(ctx context.Context, offset, limit int) ([]*models.Community, error) {
	offset, limit = page(offset, limit)
	list, err := s.communities.List(ctx, offset, limit)
	return list, internal(err, "list communities")
}

// Update edits a community; creator only
func (s *CommunityService) Update(ctx context.Context, actorID, id int64, in CommunityInput) (*models.Community, error) {
	if _, err := s.roles.Require(ctx, id, actorID, models.RoleCreator); err != nil {
		return nil, err
	}
	if len(in.Title) > 128 || len(in.Description) > 5000 {
		return nil, errs.E(errs.Invalid, "title or description too long")
	}
	community, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		community.Title = title
	}
	community.Description = strings.TrimSpace(in.Description)
	community.AvatarURL = strings.TrimSpace(in.AvatarURL)
	community.UpdatedAt = time.Now().UTC()

	if err := s.communities.Update(ctx, community); err != nil {
		return nil, internal(err, "update community")
	}
	return community, nil
}

// Role returns the caller's resolved role in a community
func (s *CommunityService) Role(ctx context.Context, communityID, userID int64) (models.Role, error) {
	return s.roles.Role(ctx, communityID, userID)
}

// Join adds the user as a learner
func (s *CommunityService) Join(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	role, err := s.roles.Role(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if membership.IsMember(role) {
		return nil, errs.E(errs.Conflict, "already a member")
	}

	banned, err := s.members.IsBanned(ctx, communityID, userID)
	if err != nil {
		return nil, internal(err, "check ban")
	}
	if banned {
		return nil, errs.E(errs.Forbidden, "you are banned from this community")
	}

	m := &models.Membership{CommunityID: communityID, UserID: userID, Role: models.RoleLearner}
	joined, err := s.members.Join(ctx, m)
	if err != nil {
		return nil, internal(err, "join community")
	}
	if !joined {
		return nil, errs.E(errs.Conflict, "already a member")
	}
	s.roles.Forget(ctx, communityID, userID)
	return m, nil
}

// Leave removes the user's membership. The creator cannot leave.
func (s *CommunityService) Leave(ctx context.Context, communityID, userID int64) error {
	role, err := s.roles.Role(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if role == models.RoleCreator {
		return errs.E(errs.Invalid, "the creator cannot leave the community")
	}
	left, err := s.members.Leave(ctx, communityID, userID)
	if err != nil {
		return internal(err, "leave community")
	}
	if !left {
		return errs.E(errs.Conflict, "not a member")
	}
	s.roles.Forget(ctx, communityID, userID)
	return nil
}

// Members lists members with their roles
func (s *CommunityService) Members(ctx context.Context, communityID int64, role models.Role, offset, limit int) ([]*models.Membership, error) {
	if _, err := s.Get(ctx, communityID); err != nil {
		return nil, err
	}
	if role != models.RoleNone && !role.Valid() {
		return nil, errs.Ef(errs.Invalid, "unknown role %q", role)
	}
	offset, limit = page(offset, limit)
	list, err := s.members.List(ctx, communityID, role, offset, limit)
	return list, internal(err, "list members")
}

// RequestContributor files a learner's request to become a contributor
func (s *CommunityService) RequestContributor(ctx context.Context, communityID, userID int64, motivation string) (*models.ContributorRequest, error) {
	role, err := s.roles.Role(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	switch role {
	case models.RoleNone:
		return nil, errs.E(errs.Forbidden, "join the community first")
	case models.RoleContributor, models.RoleCreator:
		return nil, errs.E(errs.Conflict, "already a contributor")
	}
	if len(motivation) > 2000 {
		return nil, errs.E(errs.Invalid, "motivation must be at most 2000 characters")
	}

	pending, err := s.members.PendingRequest(ctx, communityID, userID)
	if err != nil {
		return nil, internal(err, "load pending request")
	}
	if pending != nil {
		return nil, errs.E(errs.Conflict, "a request is already pending")
	}

	req := &models.ContributorRequest{
		CommunityID: communityID,
		UserID:      userID,
		Motivation:  strings.TrimSpace(motivation),
		Status:      models.RequestPending,
	}
	if err := s.members.CreateRequest(ctx, req); err != nil {
		return nil, internal(err, "create request")
	}

	if community, err := s.communities.GetByID(ctx, communityID); err == nil && community != nil {
		s.notifier.Send(ctx, notify.Notice{
			Recipients: []int64{community.CreatorID},
			Title:      "New contributor request",
			Message:    fmt.Sprintf("A member asked to become a contributor in %s", community.Title),
			Type:       models.NotifyContributorRequest,
			Link:       fmt.Sprintf("/communities/%d/requests", communityID),
			Metadata:   map[string]interface{}{"communityId": communityID, "requestId": req.ID},
		})
	}
	return req, nil
}

// Requests lists contributor requests; creator only
func (s *CommunityService) Requests(ctx context.Context, actorID, communityID int64, status models.RequestStatus) ([]*models.ContributorRequest, error) {
	if _, err := s.roles.Require(ctx, communityID, actorID, models.RoleCreator); err != nil {
		return nil, err
	}
	list, err := s.members.ListRequests(ctx, communityID, status)
	return list, internal(err, "list requests")
}

// ApproveRequest promotes the requester to contributor; creator only
func (s *CommunityService) ApproveRequest(ctx context.Context, actorID, requestID int64) (*models.ContributorRequest, error) {
	req, err := s.loadRequest(ctx, actorID, requestID)
	if err != nil {
		return nil, err
	}

	requester, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, internal(err, "load requester")
	}
	if requester == nil {
		return nil, errs.E(errs.NotFound, "requester not found")
	}

	ok, err := s.members.ApproveRequest(ctx, req, actorID, outbox.NewRoleEvent(requester, req.CommunityID, models.RoleContributor))
	if err != nil {
		return nil, internal(err, "approve request")
	}
	if !ok {
		return nil, errs.E(errs.Conflict, "request already resolved")
	}
	s.roles.Forget(ctx, req.CommunityID, req.UserID)

	req.Status = models.RequestApproved
	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{req.UserID},
		Title:      "Contributor request approved",
		Message:    "You are now a contributor and can review posts",
		Type:       models.NotifyContributorApproved,
		Link:       fmt.Sprintf("/communities/%d", req.CommunityID),
		Metadata:   map[string]interface{}{"communityId": req.CommunityID},
	})
	s.logger.Info("contributor approved",
		zap.Int64("community_id", req.CommunityID),
		zap.Int64("user_id", req.UserID))
	return req, nil
}

// RejectRequest declines a contributor request; creator only
func (s *CommunityService) RejectRequest(ctx context.Context, actorID, requestID int64) (*models.ContributorRequest, error) {
	req, err := s.loadRequest(ctx, actorID, requestID)
	if err != nil {
		return nil, err
	}
	ok, err := s.members.RejectRequest(ctx, req, actorID)
	if err != nil {
		return nil, internal(err, "reject request")
	}
	if !ok {
		return nil, errs.E(errs.Conflict, "request already resolved")
	}

	req.Status = models.RequestRejected
	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{req.UserID},
		Title:      "Contributor request declined",
		Message:    "Your contributor request was declined",
		Type:       models.NotifyContributorRejected,
		Link:       fmt.Sprintf("/communities/%d", req.CommunityID),
		Metadata:   map[string]interface{}{"communityId": req.CommunityID},
	})
	return req, nil
}

func (s *CommunityService) loadRequest(ctx context.Context, actorID, requestID int64) (*models.ContributorRequest, error) {
	req, err := s.members.GetRequest(ctx, requestID)
	if err != nil {
		return nil, internal(err, "load request")
	}
	if req == nil {
		return nil, errs.E(errs.NotFound, "request not found")
	}
	if _, err := s.roles.Require(ctx, req.CommunityID, actorID, models.RoleCreator); err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, errs.E(errs.Conflict, "request already resolved")
	}
	return req, nil
}

// Ban removes every membership of the user and records one ban; creator only
func (s *CommunityService) Ban(ctx context.Context, actorID, communityID, userID int64, reason string) (*models.Ban, error) {
	if _, err := s.roles.Require(ctx, communityID, actorID, models.RoleCreator); err != nil {
		return nil, err
	}
	if actorID == userID {
		return nil, errs.E(errs.Invalid, "you cannot ban yourself")
	}
	if len(reason) > 500 {
		return nil, errs.E(errs.Invalid, "reason must be at most 500 characters")
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internal(err, "load user")
	}
	if target == nil {
		return nil, errs.E(errs.NotFound, "user not found")
	}

	ban := &models.Ban{
		CommunityID: communityID,
		UserID:      userID,
		BannedBy:    actorID,
		Reason:      strings.TrimSpace(reason),
	}
	removed, err := s.members.Ban(ctx, ban)
	if err != nil {
		if isDuplicate(err) {
			return nil, errs.E(errs.Conflict, "user is already banned")
		}
		return nil, internal(err, "ban user")
	}
	s.roles.Forget(ctx, communityID, userID)

	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{userID},
		Title:      "Banned from community",
		Message:    "You have been banned from a community",
		Type:       models.NotifyBan,
		Metadata:   map[string]interface{}{"communityId": communityID, "reason": ban.Reason},
	})
	s.logger.Info("user banned",
		zap.Int64("community_id", communityID),
		zap.Int64("user_id", userID),
		zap.Int64("memberships_removed", removed))
	return ban, nil
}

// Unban lifts a ban; creator only
func (s *CommunityService) Unban(ctx context.Context, actorID, communityID, userID int64) error {
	if _, err := s.roles.Require(ctx, communityID, actorID, models.RoleCreator); err != nil {
		return err
	}
	ok, err := s.members.Unban(ctx, communityID, userID)
	if err != nil {
		return internal(err, "unban user")
	}
	if !ok {
		return errs.E(errs.NotFound, "ban not found")
	}
	return nil
}

// Bans lists bans; creator only
func (s *CommunityService) Bans(ctx context.Context, actorID, communityID int64) ([]*models.Ban, error) {
	if _, err := s.roles.Require(ctx, communityID, actorID, models.RoleCreator); err != nil {
		return nil, err
	}
	list, err := s.members.ListBans(ctx, communityID)
	return list, internal(err, "list bans")
}
