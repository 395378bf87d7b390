// Package outbox delivers durable side effects recorded alongside state changes.
package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/steemit/agora/internal/models"
)

// MintPayload asks the bridge to issue a soulbound token
type MintPayload struct {
	Wallet string `json:"wallet"`
}

// RolePayload asks the bridge to record a community role
type RolePayload struct {
	UserID      int64  `json:"userId"`
	Wallet      string `json:"wallet"`
	CommunityID int64  `json:"communityId"`
	Role        string `json:"role"`
}

// NewMintEvent builds a mint event. It returns nil when the user has no wallet,
// which the repositories treat as "nothing to enqueue". The user may not be
// stored yet; the user repository fills in the aggregate key on insert.
func NewMintEvent(user *models.User) *models.OutboxEvent {
	if user.Wallet() == "" {
		return nil
	}
	return newEvent(models.EventSBTMint, fmt.Sprintf("user:%d", user.ID),
		MintPayload{Wallet: user.Wallet()})
}

// NewRoleEvent builds a role change event, or nil when the user has no wallet
func NewRoleEvent(user *models.User, communityID int64, role models.Role) *models.OutboxEvent {
	if user.Wallet() == "" {
		return nil
	}
	return newEvent(models.EventSBTRoleChange, fmt.Sprintf("membership:%d:%d", communityID, user.ID),
		RolePayload{UserID: user.ID, Wallet: user.Wallet(), CommunityID: communityID, Role: string(role)})
}

func newEvent(kind, key string, payload interface{}) *models.OutboxEvent {
	raw, _ := json.Marshal(payload)
	return &models.OutboxEvent{
		ID:           uuid.NewString(),
		Kind:         kind,
		AggregateKey: key,
		Payload:      string(raw),
		Status:       models.OutboxPending,
	}
}
