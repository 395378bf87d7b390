// Package service holds the application's use cases. Services depend on
// narrow store interfaces that the db repositories satisfy.
package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/steemit/agora/internal/cache"
	"github.com/steemit/agora/internal/db"
	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
)

// Page bounds
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// UserStore is the user table
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	Create(ctx context.Context, user *models.User, event *models.OutboxEvent) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

// SessionStore keeps the single active session token of each user
type SessionStore interface {
	SaveSession(ctx context.Context, userID int64, token string) error
	DeleteSession(ctx context.Context, userID int64) error
}

// CommunityStore is the community table
type CommunityStore interface {
	Create(ctx context.Context, community *models.Community, eventFor func(*models.Community) *models.OutboxEvent) error
	GetByID(ctx context.Context, id int64) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	List(ctx context.Context, offset, limit int) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
}

// MembershipStore covers memberships, contributor requests and bans
type MembershipStore interface {
	GetMembership(ctx context.Context, communityID, userID int64) (*models.Membership, error)
	CountByRole(ctx context.Context, communityID int64, role models.Role) (int64, error)
	MemberIDs(ctx context.Context, communityID int64, roles ...models.Role) ([]int64, error)
	List(ctx context.Context, communityID int64, role models.Role, offset, limit int) ([]*models.Membership, error)
	Join(ctx context.Context, m *models.Membership) (bool, error)
	Leave(ctx context.Context, communityID, userID int64) (bool, error)
	IsBanned(ctx context.Context, communityID, userID int64) (bool, error)
	Ban(ctx context.Context, ban *models.Ban) (int64, error)
	Unban(ctx context.Context, communityID, userID int64) (bool, error)
	ListBans(ctx context.Context, communityID int64) ([]*models.Ban, error)
	CreateRequest(ctx context.Context, req *models.ContributorRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ContributorRequest, error)
	PendingRequest(ctx context.Context, communityID, userID int64) (*models.ContributorRequest, error)
	ListRequests(ctx context.Context, communityID int64, status models.RequestStatus) ([]*models.ContributorRequest, error)
	ApproveRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64, event *models.OutboxEvent) (bool, error)
	RejectRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64) (bool, error)
}

// PostStore is the post and review tables
type PostStore interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	UpdateDraft(ctx context.Context, post *models.Post) (bool, error)
	DeleteDraft(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, communityID int64, status models.PostStatus, offset, limit int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]*models.Post, error)
	Submit(ctx context.Context, id int64) (bool, error)
	Transition(ctx context.Context, id int64, from, to models.PostStatus) (bool, error)
	AddReview(ctx context.Context, review *models.Review) (bool, error)
	Reviews(ctx context.Context, postID int64) ([]models.Review, error)
}

// ContributionStore is the contribution and vote tables
type ContributionStore interface {
	Create(ctx context.Context, c *models.Contribution) error
	GetByID(ctx context.Context, id int64) (*models.Contribution, error)
	List(ctx context.Context, postID int64, status models.ContributionStatus) ([]*models.Contribution, error)
	AddVote(ctx context.Context, vote *models.ContributionReview) (bool, error)
	Votes(ctx context.Context, contributionID int64) ([]models.ContributionReview, error)
	Resolve(ctx context.Context, c *models.Contribution, to models.ContributionStatus, preview string) (bool, error)
}

// DiscussionStore is the comment and Q&A tables
type DiscussionStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	ListComments(ctx context.Context, postID int64, offset, limit int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id, authorID int64) (bool, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListQuestions(ctx context.Context, communityID int64, offset, limit int) ([]*models.Question, error)
	DeleteQuestion(ctx context.Context, id, authorID int64) (bool, error)
	CreateAnswer(ctx context.Context, a *models.Answer) error
	GetAnswer(ctx context.Context, id int64) (*models.Answer, error)
	ListAnswers(ctx context.Context, questionID int64) ([]*models.Answer, error)
	AcceptAnswer(ctx context.Context, questionID, answerID int64) error
}

// ConversationStore is the private messaging tables
type ConversationStore interface {
	Create(ctx context.Context, c *models.Conversation) error
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	Between(ctx context.Context, a, b int64) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error)
	Delete(ctx context.Context, id, creatorID int64) (bool, error)
	AddMessage(ctx context.Context, m *models.Message) error
	Messages(ctx context.Context, conversationID, afterID int64, limit int) ([]*models.Message, error)
}

// NotificationStore is the notification table
type NotificationStore interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, lastID int64, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, id int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// UnreadCounter caches unread notification counts
type UnreadCounter interface {
	GetUnread(ctx context.Context, userID int64) (int64, error)
	SetUnread(ctx context.Context, userID, count int64) error
	ResetUnread(ctx context.Context, userID int64) error
}

// Roles resolves community roles; *membership.Resolver implements it
type Roles interface {
	Role(ctx context.Context, communityID, userID int64) (models.Role, error)
	Require(ctx context.Context, communityID, userID int64, min models.Role) (models.Role, error)
	Forget(ctx context.Context, communityID, userID int64)
}

// Notifier delivers best-effort notifications; *notify.Dispatcher implements it
type Notifier interface {
	Send(ctx context.Context, n notify.Notice)
}

// Pinner stores uploaded files; *ipfs.Client implements it
type Pinner interface {
	Pin(ctx context.Context, name string, r io.Reader) (string, error)
	URL(cid string) string
}

// page clamps paging arguments
func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}

// internal wraps an unexpected store failure
func internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var classified *errs.Error
	if errors.As(err, &classified) {
		return err
	}
	return errs.Wrap(errs.Internal, err, msg)
}

// ignoreCacheOff treats a disabled cache as success
func ignoreCacheOff(err error) error {
	if errors.Is(err, cache.ErrCacheDisabled) {
		return nil
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, db.ErrDuplicate)
}

func required(field, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errs.Ef(errs.Invalid, "%s is required", field)
	}
	if max > 0 && len(value) > max {
		return errs.Ef(errs.Invalid, "%s must be at most %d characters", field, max)
	}
	return nil
}
