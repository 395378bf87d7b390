package models

import (
	"time"
)

// OutboxStatus is the delivery state of an outbox event
type OutboxStatus string

// Outbox states
const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxDead      OutboxStatus = "dead"
)

// Outbox event kinds
const (
	EventSBTMint       = "sbt.mint"
	EventSBTRoleChange = "sbt.role_changed"
)

// OutboxEvent is a durable side effect waiting for delivery to the chain bridge
type OutboxEvent struct {
	ID            string       `gorm:"primaryKey;type:varchar(36);column:id"`
	Kind          string       `gorm:"type:varchar(32);not null;column:kind"`
	AggregateKey  string       `gorm:"type:varchar(128);not null;index;column:aggregate_key"`
	Payload       string       `gorm:"type:text;not null;column:payload"`
	Status        OutboxStatus `gorm:"type:varchar(16);not null;default:'pending';index:outbox_due;column:status"`
	Attempts      int          `gorm:"not null;default:0;column:attempts"`
	NextAttemptAt time.Time    `gorm:"not null;index:outbox_due;column:next_attempt_at"`
	LastError     string       `gorm:"type:varchar(2000);not null;default:'';column:last_error"`
	DeliveredAt   *time.Time   `gorm:"column:delivered_at"`
	CreatedAt     time.Time    `gorm:"not null;column:created_at"`
	UpdatedAt     time.Time    `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for OutboxEvent
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
