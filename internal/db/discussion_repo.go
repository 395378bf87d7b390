package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/steemit/agora/internal/models"
)

// DiscussionRepository provides comment and Q&A database operations
type DiscussionRepository struct {
	*Repository
}

// NewDiscussionRepository creates a new discussion repository
func NewDiscussionRepository(repo *Repository) *DiscussionRepository {
	return &DiscussionRepository{Repository: repo}
}

// CreateComment creates a comment
func (r *DiscussionRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetComment retrieves a comment by ID
func (r *DiscussionRepository) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	found, err := r.first(ctx, &c, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// ListComments lists a post's comments, oldest first
func (r *DiscussionRepository) ListComments(ctx context.Context, postID int64, offset, limit int) ([]*models.Comment, error) {
	var list []*models.Comment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("id").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// DeleteComment deletes a comment by its author
func (r *DiscussionRepository) DeleteComment(ctx context.Context, id, authorID int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Comment{})
	return res.RowsAffected > 0, res.Error
}

// CreateQuestion creates a question
func (r *DiscussionRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// GetQuestion retrieves a question by ID
func (r *DiscussionRepository) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	found, err := r.first(ctx, &q, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &q, nil
}

// ListQuestions lists a community's questions, newest first
func (r *DiscussionRepository) ListQuestions(ctx context.Context, communityID int64, offset, limit int) ([]*models.Question, error) {
	var list []*models.Question
	err := r.db.WithContext(ctx).Where("community_id = ?", communityID).
		Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// DeleteQuestion deletes a question and its answers when requested by its author
func (r *DiscussionRepository) DeleteQuestion(ctx context.Context, id, authorID int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Question{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error
	})
	return deleted, err
}

// CreateAnswer creates an answer
func (r *DiscussionRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetAnswer retrieves an answer by ID
func (r *DiscussionRepository) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	var a models.Answer
	found, err := r.first(ctx, &a, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// ListAnswers lists a question's answers, oldest first
func (r *DiscussionRepository) ListAnswers(ctx context.Context, questionID int64) ([]*models.Answer, error) {
	var list []*models.Answer
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("id").Find(&list).Error
	return list, err
}

// AcceptAnswer records the accepted answer of a question
func (r *DiscussionRepository) AcceptAnswer(ctx context.Context, questionID, answerID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"accepted_answer_id": answerID,
			"updated_at":         time.Now().UTC(),
		}).Error
}

// ConversationRepository provides private messaging database operations
type ConversationRepository struct {
	*Repository
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(repo *Repository) *ConversationRepository {
	return &ConversationRepository{Repository: repo}
}

// Create creates a conversation
func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	var c models.Conversation
	found, err := r.first(ctx, &c, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// Between finds the conversation between two users in either direction
func (r *ConversationRepository) Between(ctx context.Context, a, b int64) (*models.Conversation, error) {
	var c models.Conversation
	found, err := r.first(ctx, &c,
		"(creator_id = ? AND participant_id = ?) OR (creator_id = ? AND participant_id = ?)", a, b, b, a)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// ListForUser lists conversations the user takes part in, most recent first
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	var list []*models.Conversation
	err := r.db.WithContext(ctx).
		Where("creator_id = ? OR participant_id = ?", userID, userID).
		Order("updated_at DESC").Find(&list).Error
	return list, err
}

// Delete removes a conversation and its messages. Only the creator may delete.
func (r *ConversationRepository) Delete(ctx context.Context, id, creatorID int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND creator_id = ?", id, creatorID).Delete(&models.Conversation{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error
	})
	return deleted, err
}

// AddMessage stores a message and bumps the conversation's updated_at
func (r *ConversationRepository) AddMessage(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", m.ConversationID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// Messages lists messages of a conversation, oldest first, after afterID
func (r *ConversationRepository) Messages(ctx context.Context, conversationID, afterID int64, limit int) ([]*models.Message, error) {
	var list []*models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND id > ?", conversationID, afterID).
		Order("id").Limit(limit).Find(&list).Error
	return list, err
}
