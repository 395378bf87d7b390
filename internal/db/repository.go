package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/agora/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// first loads a single row into dest and reports whether it was found
func (r *Repository) first(ctx context.Context, dest interface{}, query interface{}, args ...interface{}) (bool, error) {
	err := r.db.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertEvent writes an outbox event as part of tx. A nil event is a no-op.
func insertEvent(tx *gorm.DB, event *models.OutboxEvent) error {
	if event == nil {
		return nil
	}
	if event.NextAttemptAt.IsZero() {
		event.NextAttemptAt = time.Now().UTC()
	}
	event.Status = models.OutboxPending
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	found, err := r.first(ctx, &user, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := r.first(ctx, &user, "username = ?", username)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetByIDs retrieves multiple users by ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a user and, when event is set, its outbox event atomically
func (r *UserRepository) Create(ctx context.Context, user *models.User, event *models.OutboxEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if event != nil {
			event.AggregateKey = userKey(user.ID)
		}
		return insertEvent(tx, event)
	})
	return translate(err)
}

// UpdateProfile updates the editable profile columns
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Select("display_name", "bio", "avatar_url", "updated_at").
		Updates(user).Error
}

// CommunityRepository provides community-related database operations
type CommunityRepository struct {
	*Repository
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(repo *Repository) *CommunityRepository {
	return &CommunityRepository{Repository: repo}
}

// Create inserts the community, the creator's membership row and the outbox
// event built by eventFor in one transaction. eventFor runs after the insert so
// it sees the new ID; it may be nil or return nil.
func (r *CommunityRepository) Create(ctx context.Context, community *models.Community, eventFor func(*models.Community) *models.OutboxEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		creator := &models.Membership{
			CommunityID: community.ID,
			UserID:      community.CreatorID,
			Role:        models.RoleCreator,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(creator).Error; err != nil {
			return err
		}
		if eventFor == nil {
			return nil
		}
		return insertEvent(tx, eventFor(community))
	})
	return translate(err)
}

// GetByID retrieves a community by ID
func (r *CommunityRepository) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	var community models.Community
	found, err := r.first(ctx, &community, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &community, nil
}

// GetByName retrieves a community by name
func (r *CommunityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	found, err := r.first(ctx, &community, "name = ?", name)
	if err != nil || !found {
		return nil, err
	}
	return &community, nil
}

// List returns communities, newest first
func (r *CommunityRepository) List(ctx context.Context, offset, limit int) ([]*models.Community, error) {
	var list []*models.Community
	err := r.db.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// Update saves the editable community columns
func (r *CommunityRepository) Update(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).
		Model(community).
		Select("title", "description", "avatar_url", "updated_at").
		Updates(community).Error
}

func userKey(id int64) string {
	return "user:" + itoa(id)
}
