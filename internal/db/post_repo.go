package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/agora/internal/models"
)

// PostRepository provides post and review database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	found, err := r.first(ctx, &post, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateDraft rewrites a post's title and content while it is still a draft.
// It reports false when the post has left DRAFT.
func (r *PostRepository) UpdateDraft(ctx context.Context, post *models.Post) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", post.ID, models.PostDraft).
		Updates(map[string]interface{}{
			"title":      post.Title,
			"content":    post.Content,
			"preview":    post.Preview,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// DeleteDraft deletes a post that is still a draft
func (r *PostRepository) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, models.PostDraft).Delete(&models.Post{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return tx.Where("post_id = ?", id).Delete(&models.Review{}).Error
	})
	return deleted, err
}

// List returns posts of a community, newest first, optionally filtered by status
func (r *PostRepository) List(ctx context.Context, communityID int64, status models.PostStatus, offset, limit int) ([]*models.Post, error) {
	var list []*models.Post
	q := r.db.WithContext(ctx).Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// ListByAuthor returns an author's posts in any status
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]*models.Post, error) {
	var list []*models.Post
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).
		Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// Submit moves a draft to PENDING and discards reviews from an earlier round.
// It reports false when the post was not a draft.
func (r *PostRepository) Submit(ctx context.Context, id int64) (bool, error) {
	submitted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := transitionPost(tx, id, models.PostDraft, models.PostPending)
		if err != nil || !ok {
			return err
		}
		submitted = true
		return tx.Where("post_id = ?", id).Delete(&models.Review{}).Error
	})
	return submitted, err
}

// Transition moves a post from one status to another. Only the caller whose
// update changed the row gets true, so concurrent evaluations of the same vote
// count resolve to a single winner.
func (r *PostRepository) Transition(ctx context.Context, id int64, from, to models.PostStatus) (bool, error) {
	return transitionPost(r.db.WithContext(ctx), id, from, to)
}

func transitionPost(tx *gorm.DB, id int64, from, to models.PostStatus) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if to == models.PostPublished {
		updates["published_at"] = now
	}
	res := tx.Model(&models.Post{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// AddReview inserts a review. The (post, reviewer) unique index makes the
// insert atomic: it reports false when the reviewer already voted.
func (r *PostRepository) AddReview(ctx context.Context, review *models.Review) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(review)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Reviews lists the reviews of a post in submission order
func (r *PostRepository) Reviews(ctx context.Context, postID int64) ([]models.Review, error) {
	var list []models.Review
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id").Find(&list).Error
	return list, err
}

// ContributionRepository provides contribution database operations
type ContributionRepository struct {
	*Repository
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(repo *Repository) *ContributionRepository {
	return &ContributionRepository{Repository: repo}
}

// Create creates a new contribution
func (r *ContributionRepository) Create(ctx context.Context, c *models.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetByID retrieves a contribution by ID
func (r *ContributionRepository) GetByID(ctx context.Context, id int64) (*models.Contribution, error) {
	var c models.Contribution
	found, err := r.first(ctx, &c, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// List lists contributions to a post, optionally filtered by status
func (r *ContributionRepository) List(ctx context.Context, postID int64, status models.ContributionStatus) ([]*models.Contribution, error) {
	var list []*models.Contribution
	q := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("id DESC").Find(&list).Error
	return list, err
}

// AddVote inserts a vote; false when the voter already voted
func (r *ContributionRepository) AddVote(ctx context.Context, vote *models.ContributionReview) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Votes lists the votes on a contribution
func (r *ContributionRepository) Votes(ctx context.Context, contributionID int64) ([]models.ContributionReview, error) {
	var list []models.ContributionReview
	err := r.db.WithContext(ctx).Where("contribution_id = ?", contributionID).Order("id").Find(&list).Error
	return list, err
}

// Resolve moves a pending contribution to a terminal status. On approval the
// contribution content and preview replace the parent post's in the same
// transaction. It reports false when the contribution was already terminal,
// in which case nothing is written.
func (r *ContributionRepository) Resolve(ctx context.Context, c *models.Contribution, to models.ContributionStatus, preview string) (bool, error) {
	resolved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Contribution{}).
			Where("id = ? AND status = ?", c.ID, models.ContributionPending).
			Updates(map[string]interface{}{
				"status":      to,
				"resolved_at": now,
				"updated_at":  now,
			})
		if res.Error != nil || res.RowsAffected != 1 {
			return res.Error
		}

		if to == models.ContributionApproved {
			if err := tx.Model(&models.Post{}).
				Where("id = ?", c.PostID).
				Updates(map[string]interface{}{
					"content":    c.Content,
					"preview":    preview,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}
		resolved = true
		return nil
	})
	return resolved, err
}
