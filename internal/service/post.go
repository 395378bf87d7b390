package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/content"
	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

// PostInput holds the editable fields of a post
type PostInput struct {
	Title   string
	Content string
}

func (in PostInput) validate() error {
	if err := required("title", in.Title, 255); err != nil {
		return err
	}
	return required("content", in.Content, 0)
}

// PostService manages drafts and their submission for review
type PostService struct {
	posts    PostStore
	members  MembershipStore
	roles    Roles
	notifier Notifier
	logger   *zap.Logger
}

// NewPostService creates a post service
func NewPostService(posts PostStore, members MembershipStore, roles Roles, notifier Notifier) *PostService {
	return &PostService{
		posts:    posts,
		members:  members,
		roles:    roles,
		notifier: notifier,
		logger:   logging.WithComponent("posts"),
	}
}

// Create stores a new draft; contributors and the creator only
func (s *PostService) Create(ctx context.Context, authorID, communityID int64, in PostInput) (*models.Post, error) {
	if _, err := s.roles.Require(ctx, communityID, authorID, models.RoleContributor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post := &models.Post{
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Preview:     content.Preview(in.Content, content.DefaultPreviewLength),
		Status:      models.PostDraft,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, internal(err, "create post")
	}
	return post, nil
}

// Get returns a post the viewer may see. Drafts are visible to their author;
// pending posts also to reviewers of the community.
func (s *PostService) Get(ctx context.Context, viewerID, id int64) (*models.Post, error) {
	post, err := loadPost(ctx, s.posts, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostPublished || post.AuthorID == viewerID {
		return post, nil
	}
	if post.Status == models.PostPending {
		role, err := s.roles.Role(ctx, post.CommunityID, viewerID)
		if err != nil {
			return nil, err
		}
		if membership.CanReview(role) {
			return post, nil
		}
	}
	return nil, errs.E(errs.NotFound, "post not found")
}

// Update rewrites a draft; author only
func (s *PostService) Update(ctx context.Context, authorID, id int64, in PostInput) (*models.Post, error) {
	post, err := s.ownDraft(ctx, authorID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Content = in.Content
	post.Preview = content.Preview(in.Content, content.DefaultPreviewLength)
	post.UpdatedAt = time.Now().UTC()

	ok, err := s.posts.UpdateDraft(ctx, post)
	if err != nil {
		return nil, internal(err, "update post")
	}
	if !ok {
		return nil, errs.E(errs.Conflict, "only drafts can be edited")
	}
	return post, nil
}

// Delete removes a draft; author only
func (s *PostService) Delete(ctx context.Context, authorID, id int64) error {
	if _, err := s.ownDraft(ctx, authorID, id); err != nil {
		return err
	}
	ok, err := s.posts.DeleteDraft(ctx, id)
	if err != nil {
		return internal(err, "delete post")
	}
	if !ok {
		return errs.E(errs.Conflict, "only drafts can be deleted")
	}
	return nil
}

// Submit sends a draft for review and tells the community's reviewers
func (s *PostService) Submit(ctx context.Context, authorID, id int64) (*models.Post, error) {
	post, err := s.ownDraft(ctx, authorID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, post.CommunityID, authorID, models.RoleContributor); err != nil {
		return nil, err
	}

	ok, err := s.posts.Submit(ctx, id)
	if err != nil {
		return nil, internal(err, "submit post")
	}
	if !ok {
		return nil, errs.E(errs.Conflict, "post is not a draft")
	}
	post.Status = models.PostPending
	telemetry.RecordPostTransition(ctx, string(models.PostPending))

	reviewers, err := s.members.MemberIDs(ctx, post.CommunityID, models.RoleContributor, models.RoleCreator)
	if err != nil {
		s.logger.Warn("failed to load reviewers", zap.Int64("post_id", id), zap.Error(err))
	}
	s.notifier.Send(ctx, notify.Notice{
		Recipients: notify.Except(reviewers, authorID),
		Title:      "New post awaiting review",
		Message:    fmt.Sprintf("%q is waiting for your review", post.Title),
		Type:       models.NotifyNewPost,
		Link:       fmt.Sprintf("/posts/%d", post.ID),
		Metadata:   map[string]interface{}{"postId": post.ID, "communityId": post.CommunityID},
	})
	return post, nil
}

// List returns posts of a community. Only reviewers may list pending posts;
// drafts are listed through Mine.
func (s *PostService) List(ctx context.Context, viewerID, communityID int64, status models.PostStatus, offset, limit int) ([]*models.Post, error) {
	if status == "" {
		status = models.PostPublished
	}
	switch status {
	case models.PostPublished:
		if _, err := s.roles.Role(ctx, communityID, viewerID); err != nil {
			return nil, err
		}
	case models.PostPending:
		if _, err := s.roles.Require(ctx, communityID, viewerID, models.RoleContributor); err != nil {
			return nil, err
		}
	default:
		return nil, errs.Ef(errs.Invalid, "cannot list %s posts of a community", status)
	}

	offset, limit = page(offset, limit)
	list, err := s.posts.List(ctx, communityID, status, offset, limit)
	return list, internal(err, "list posts")
}

// Mine lists the caller's posts in every status
func (s *PostService) Mine(ctx context.Context, authorID int64, offset, limit int) ([]*models.Post, error) {
	offset, limit = page(offset, limit)
	list, err := s.posts.ListByAuthor(ctx, authorID, offset, limit)
	return list, internal(err, "list posts")
}

func (s *PostService) ownDraft(ctx context.Context, authorID, id int64) (*models.Post, error) {
	post, err := loadPost(ctx, s.posts, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, errs.E(errs.Forbidden, "only the author can change this post")
	}
	if post.Status != models.PostDraft {
		return nil, errs.E(errs.Conflict, "post is not a draft")
	}
	return post, nil
}

func loadPost(ctx context.Context, posts PostStore, id int64) (*models.Post, error) {
	post, err := posts.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err, "load post")
	}
	if post == nil {
		return nil, errs.E(errs.NotFound, "post not found")
	}
	return post, nil
}
