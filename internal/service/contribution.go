package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/content"
	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
	"github.com/steemit/agora/internal/workflow"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

// VoteResult is a contribution's status together with its vote progress
type VoteResult struct {
	ContributionID int64                     `json:"contribution_id"`
	Status         models.ContributionStatus `json:"status"`
	Decision       workflow.Decision         `json:"decision"`
}

// ContributionService handles proposed edits to published posts
type ContributionService struct {
	posts         PostStore
	contributions ContributionStore
	members       MembershipStore
	roles         Roles
	notifier      Notifier
	logger        *zap.Logger
}

// NewContributionService creates a contribution service
func NewContributionService(posts PostStore, contributions ContributionStore, members MembershipStore, roles Roles, notifier Notifier) *ContributionService {
	return &ContributionService{
		posts:         posts,
		contributions: contributions,
		members:       members,
		roles:         roles,
		notifier:      notifier,
		logger:        logging.WithComponent("contributions"),
	}
}

// Propose submits replacement content for a published post
func (s *ContributionService) Propose(ctx context.Context, authorID, postID int64, body, summary string) (*models.Contribution, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, post.CommunityID, authorID, models.RoleContributor); err != nil {
		return nil, err
	}
	if post.Status != models.PostPublished {
		return nil, errs.E(errs.Conflict, "only published posts accept contributions")
	}
	if err := required("content", body, 0); err != nil {
		return nil, err
	}
	if len(summary) > 1000 {
		return nil, errs.E(errs.Invalid, "summary must be at most 1000 characters")
	}

	c := &models.Contribution{
		PostID:   postID,
		AuthorID: authorID,
		Content:  body,
		Summary:  strings.TrimSpace(summary),
		Status:   models.ContributionPending,
	}
	if err := s.contributions.Create(ctx, c); err != nil {
		return nil, internal(err, "create contribution")
	}

	reviewers, err := s.members.MemberIDs(ctx, post.CommunityID, models.RoleContributor, models.RoleCreator)
	if err != nil {
		s.logger.Warn("failed to load reviewers", zap.Int64("post_id", postID), zap.Error(err))
	}
	s.notifier.Send(ctx, notify.Notice{
		Recipients: notify.Except(append(reviewers, post.AuthorID), authorID),
		Title:      "New contribution",
		Message:    fmt.Sprintf("A contribution to %q is waiting for votes", post.Title),
		Type:       models.NotifyContribution,
		Link:       fmt.Sprintf("/posts/%d/contributions/%d", postID, c.ID),
		Metadata:   map[string]interface{}{"postId": postID, "contributionId": c.ID},
	})
	return c, nil
}

// Get returns a contribution
func (s *ContributionService) Get(ctx context.Context, id int64) (*models.Contribution, error) {
	c, err := s.contributions.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err, "load contribution")
	}
	if c == nil {
		return nil, errs.E(errs.NotFound, "contribution not found")
	}
	return c, nil
}

// List lists contributions to a post, optionally by status
func (s *ContributionService) List(ctx context.Context, postID int64, status models.ContributionStatus) ([]*models.Contribution, error) {
	if _, err := loadPost(ctx, s.posts, postID); err != nil {
		return nil, err
	}
	list, err := s.contributions.List(ctx, postID, status)
	return list, internal(err, "list contributions")
}

// Vote records a verdict on a pending contribution. Reaching the approval
// threshold merges the content into the post exactly once.
func (s *ContributionService) Vote(ctx context.Context, voterID, id int64, verdict models.Verdict, comment string) (*VoteResult, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	post, err := loadPost(ctx, s.posts, c.PostID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, post.CommunityID, voterID, models.RoleContributor); err != nil {
		return nil, err
	}
	if c.AuthorID == voterID {
		return nil, errs.E(errs.Conflict, "you cannot vote on your own contribution")
	}
	if !verdict.Valid() {
		return nil, errs.E(errs.Invalid, "verdict must be APPROVED or REJECTED")
	}
	if c.Status.Terminal() {
		return nil, errs.Ef(errs.Conflict, "contribution already %s", strings.ToLower(string(c.Status)))
	}

	added, err := s.contributions.AddVote(ctx, &models.ContributionReview{
		ContributionID: id,
		VoterID:        voterID,
		Verdict:        verdict,
		Comment:        strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, internal(err, "store vote")
	}
	if !added {
		return nil, errs.E(errs.Conflict, "you have already voted on this contribution")
	}

	votes, err := s.contributions.Votes(ctx, id)
	if err != nil {
		return nil, internal(err, "load votes")
	}
	contributors, err := contributorCount(ctx, s.members, post.CommunityID)
	if err != nil {
		return nil, err
	}

	decision := workflow.EvaluateContribution(votes, contributors)
	result := &VoteResult{ContributionID: id, Status: models.ContributionPending, Decision: decision}
	if decision.Outcome == workflow.Pending {
		return result, nil
	}

	target := decision.ContributionStatus()
	preview := ""
	if target == models.ContributionApproved {
		preview = content.Preview(c.Content, content.DefaultPreviewLength)
	}
	resolved, err := s.contributions.Resolve(ctx, c, target, preview)
	if err != nil {
		return nil, internal(err, "resolve contribution")
	}
	if !resolved {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Status = current.Status
		return result, nil
	}

	result.Status = target
	telemetry.RecordContributionTransition(ctx, string(target))
	s.logger.Info("contribution resolved",
		zap.Int64("contribution_id", id),
		zap.Int64("post_id", c.PostID),
		zap.String("status", string(target)))

	message := fmt.Sprintf("Your contribution to %q was merged", post.Title)
	if target == models.ContributionRejected {
		message = fmt.Sprintf("Your contribution to %q was declined", post.Title)
		if len(decision.Reasons) > 0 {
			message += ": " + strings.Join(decision.Reasons, "; ")
		}
	}
	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{c.AuthorID},
		Title:      "Contribution " + strings.ToLower(string(target)),
		Message:    truncate(message, 2000),
		Type:       models.NotifyContributionResult,
		Link:       fmt.Sprintf("/posts/%d", c.PostID),
		Metadata:   map[string]interface{}{"postId": c.PostID, "contributionId": id, "status": string(target)},
	})
	return result, nil
}
