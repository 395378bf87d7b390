package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
)

// ConversationService handles private messages between two users
type ConversationService struct {
	conversations ConversationStore
	users         UserStore
	notifier      Notifier
}

// NewConversationService creates a conversation service
func NewConversationService(conversations ConversationStore, users UserStore, notifier Notifier) *ConversationService {
	return &ConversationService{conversations: conversations, users: users, notifier: notifier}
}

// Start opens a conversation with another user, or returns the existing one
func (s *ConversationService) Start(ctx context.Context, creatorID, participantID int64) (*models.Conversation, error) {
	if creatorID == participantID {
		return nil, errs.E(errs.Invalid, "cannot start a conversation with yourself")
	}
	other, err := s.users.GetByID(ctx, participantID)
	if err != nil {
		return nil, internal(err, "load user")
	}
	if other == nil {
		return nil, errs.E(errs.NotFound, "user not found")
	}

	existing, err := s.conversations.Between(ctx, creatorID, participantID)
	if err != nil {
		return nil, internal(err, "load conversation")
	}
	if existing != nil {
		return existing, nil
	}

	c := &models.Conversation{CreatorID: creatorID, ParticipantID: participantID}
	if err := s.conversations.Create(ctx, c); err != nil {
		return nil, internal(err, "create conversation")
	}
	return c, nil
}

// List lists the user's conversations
func (s *ConversationService) List(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	list, err := s.conversations.ListForUser(ctx, userID)
	return list, internal(err, "list conversations")
}

// Send posts a message; participants only
func (s *ConversationService) Send(ctx context.Context, senderID, conversationID int64, body string) (*models.Message, error) {
	c, err := s.participant(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}
	if err := required("body", body, 5000); err != nil {
		return nil, err
	}

	m := &models.Message{ConversationID: conversationID, SenderID: senderID, Body: strings.TrimSpace(body)}
	if err := s.conversations.AddMessage(ctx, m); err != nil {
		return nil, internal(err, "send message")
	}

	recipient := c.ParticipantID
	if senderID == c.ParticipantID {
		recipient = c.CreatorID
	}
	s.notifier.Send(ctx, notify.Notice{
		Recipients: []int64{recipient},
		Title:      "New message",
		Message:    truncate(m.Body, 140),
		Type:       models.NotifyMessage,
		Link:       fmt.Sprintf("/conversations/%d", conversationID),
		Metadata:   map[string]interface{}{"conversationId": conversationID, "messageId": m.ID},
	})
	return m, nil
}

// Messages lists messages after afterID; participants only
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID, afterID int64, limit int) ([]*models.Message, error) {
	if _, err := s.participant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	_, limit = page(0, limit)
	list, err := s.conversations.Messages(ctx, conversationID, afterID, limit)
	return list, internal(err, "list messages")
}

// Delete removes a conversation; its creator only
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID int64) error {
	c, err := s.participant(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if c.CreatorID != userID {
		return errs.E(errs.Forbidden, "only the creator can delete this conversation")
	}
	if _, err := s.conversations.Delete(ctx, conversationID, userID); err != nil {
		return internal(err, "delete conversation")
	}
	return nil
}

func (s *ConversationService) participant(ctx context.Context, userID, conversationID int64) (*models.Conversation, error) {
	c, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, internal(err, "load conversation")
	}
	if c == nil || !c.Includes(userID) {
		return nil, errs.E(errs.NotFound, "conversation not found")
	}
	return c, nil
}
