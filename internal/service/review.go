package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
	"github.com/steemit/agora/internal/workflow"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

// ReviewResult is a post's status together with its vote progress
type ReviewResult struct {
	PostID   int64             `json:"post_id"`
	Status   models.PostStatus `json:"status"`
	Decision workflow.Decision `json:"decision"`
}

// ReviewService records reviews on pending posts and applies their outcome
type ReviewService struct {
	posts    PostStore
	members  MembershipStore
	roles    Roles
	notifier Notifier
	logger   *zap.Logger
}

// NewReviewService creates a review service
func NewReviewService(posts PostStore, members MembershipStore, roles Roles, notifier Notifier) *ReviewService {
	return &ReviewService{
		posts:    posts,
		members:  members,
		roles:    roles,
		notifier: notifier,
		logger:   logging.WithComponent("reviews"),
	}
}

// Submit records one reviewer's verdict and applies the resulting outcome
func (s *ReviewService) Submit(ctx context.Context, reviewerID, postID int64, verdict models.Verdict, feedback string) (*ReviewResult, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, post.CommunityID, reviewerID, models.RoleContributor); err != nil {
		return nil, err
	}
	if post.AuthorID == reviewerID {
		return nil, errs.E(errs.Forbidden, "authors cannot review their own post")
	}
	if !verdict.Valid() {
		return nil, errs.E(errs.Invalid, "verdict must be APPROVED or REJECTED")
	}
	if len(feedback) > 5000 {
		return nil, errs.E(errs.Invalid, "feedback must be at most 5000 characters")
	}
	if post.Status != models.PostPending {
		return nil, errs.E(errs.Conflict, "post is not pending review")
	}

	added, err := s.posts.AddReview(ctx, &models.Review{
		PostID:     postID,
		ReviewerID: reviewerID,
		Verdict:    verdict,
		Feedback:   strings.TrimSpace(feedback),
	})
	if err != nil {
		return nil, internal(err, "store review")
	}
	if !added {
		return nil, errs.E(errs.Conflict, "you have already reviewed this post")
	}
	telemetry.RecordReview(ctx, string(verdict))

	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{post.AuthorID},
		Title:      "New review",
		Message:    fmt.Sprintf("Your post %q received a review", post.Title),
		Type:       models.NotifyReview,
		Link:       fmt.Sprintf("/posts/%d", post.ID),
		Metadata:   map[string]interface{}{"postId": post.ID, "verdict": string(verdict)},
	})

	return s.evaluate(ctx, post)
}

// Status reports a post's vote progress. A pending post is re-evaluated, so a
// post whose quorum changed since the last vote is resolved here. Other
// statuses are returned unchanged and nothing is notified.
func (s *ReviewService) Status(ctx context.Context, viewerID, postID int64) (*ReviewResult, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != viewerID {
		role, err := s.roles.Role(ctx, post.CommunityID, viewerID)
		if err != nil {
			return nil, err
		}
		if post.Status != models.PostPublished && !membership.CanReview(role) {
			return nil, errs.E(errs.NotFound, "post not found")
		}
	}
	return s.evaluate(ctx, post)
}

// Reviews lists a post's reviews; visible to the author and reviewers
func (s *ReviewService) Reviews(ctx context.Context, viewerID, postID int64) ([]models.Review, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != viewerID {
		if _, err := s.roles.Require(ctx, post.CommunityID, viewerID, models.RoleContributor); err != nil {
			return nil, err
		}
	}
	list, err := s.posts.Reviews(ctx, postID)
	return list, internal(err, "list reviews")
}

// evaluate counts the reviews of a pending post and moves it when a side
// reaches the threshold. The conditional transition lets exactly one of any
// concurrent evaluations win, and only the winner notifies.
func (s *ReviewService) evaluate(ctx context.Context, post *models.Post) (*ReviewResult, error) {
	reviews, err := s.posts.Reviews(ctx, post.ID)
	if err != nil {
		return nil, internal(err, "load reviews")
	}
	contributors, err := contributorCount(ctx, s.members, post.CommunityID)
	if err != nil {
		return nil, err
	}

	decision := workflow.EvaluatePost(reviews, contributors)
	result := &ReviewResult{PostID: post.ID, Status: post.Status, Decision: decision}
	if post.Status != models.PostPending || decision.Outcome == workflow.Pending {
		return result, nil
	}

	target := decision.PostStatus()
	moved, err := s.posts.Transition(ctx, post.ID, models.PostPending, target)
	if err != nil {
		return nil, internal(err, "transition post")
	}
	if !moved {
		current, err := loadPost(ctx, s.posts, post.ID)
		if err != nil {
			return nil, err
		}
		result.Status = current.Status
		return result, nil
	}

	result.Status = target
	telemetry.RecordPostTransition(ctx, string(target))
	s.logger.Info("post resolved",
		zap.Int64("post_id", post.ID),
		zap.String("status", string(target)),
		zap.Int("approvals", decision.Approvals),
		zap.Int("rejections", decision.Rejections),
		zap.Int("eligible", decision.Eligible))

	link := fmt.Sprintf("/posts/%d", post.ID)
	if target == models.PostPublished {
		s.notifier.Send(ctx, notify.Notice{
			Recipients: []int64{post.AuthorID},
			Title:      "Post published",
			Message:    fmt.Sprintf("Your post %q has been published", post.Title),
			Type:       models.NotifyPostPublished,
			Link:       link,
			Metadata:   map[string]interface{}{"postId": post.ID},
		})
		members, err := s.members.MemberIDs(ctx, post.CommunityID)
		if err != nil {
			s.logger.Warn("failed to load members", zap.Int64("post_id", post.ID), zap.Error(err))
		}
		s.notifier.Send(ctx, notify.Notice{
			Recipients: notify.Except(members, post.AuthorID),
			Title:      "New post",
			Message:    fmt.Sprintf("%q was published", post.Title),
			Type:       models.NotifyPostPublished,
			Link:       link,
			Metadata:   map[string]interface{}{"postId": post.ID, "communityId": post.CommunityID},
		})
		return result, nil
	}

	message := fmt.Sprintf("Your post %q was sent back for revision", post.Title)
	if len(decision.Reasons) > 0 {
		message += ": " + strings.Join(decision.Reasons, "; ")
	}
	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{post.AuthorID},
		Title:      "Post needs revision",
		Message:    truncate(message, 2000),
		Type:       models.NotifyPostRejected,
		Link:       link,
		Metadata:   map[string]interface{}{"postId": post.ID, "reasons": decision.Reasons},
	})
	return result, nil
}

// contributorCount is the quorum population N of a community. The creator
// may vote but is not part of N.
func contributorCount(ctx context.Context, members MembershipStore, communityID int64) (int, error) {
	n, err := members.CountByRole(ctx, communityID, models.RoleContributor)
	if err != nil {
		return 0, internal(err, "count contributors")
	}
	return int(n), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
