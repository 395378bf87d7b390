package models

import (
	"database/sql"
	"time"
)

// NotifyType tags a notification. The set is closed.
type NotifyType string

// Notification type constants
const (
	NotifyNewPost             NotifyType = "new_post"
	NotifyPostPublished       NotifyType = "post_published"
	NotifyPostRejected        NotifyType = "post_rejected"
	NotifyReview              NotifyType = "review"
	NotifyContribution        NotifyType = "contribution"
	NotifyContributionResult  NotifyType = "contribution_result"
	NotifyComment             NotifyType = "comment"
	NotifyAnswer              NotifyType = "answer"
	NotifyMessage             NotifyType = "message"
	NotifyContributorRequest  NotifyType = "contributor_request"
	NotifyContributorApproved NotifyType = "contributor_approved"
	NotifyContributorRejected NotifyType = "contributor_rejected"
	NotifyBan                 NotifyType = "ban"
)

var notifyTypes = map[NotifyType]bool{
	NotifyNewPost:             true,
	NotifyPostPublished:       true,
	NotifyPostRejected:        true,
	NotifyReview:              true,
	NotifyContribution:        true,
	NotifyContributionResult:  true,
	NotifyComment:             true,
	NotifyAnswer:              true,
	NotifyMessage:             true,
	NotifyContributorRequest:  true,
	NotifyContributorApproved: true,
	NotifyContributorRejected: true,
	NotifyBan:                 true,
}

// Valid reports whether t belongs to the closed notification enumeration.
func (t NotifyType) Valid() bool {
	return notifyTypes[t]
}

// Notification represents a notification delivered to one user
type Notification struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    int64          `gorm:"not null;index:notifications_user_read;column:user_id" json:"userId"`
	Title     string         `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Message   string         `gorm:"type:varchar(2000);not null;column:message" json:"message"`
	Type      NotifyType     `gorm:"type:varchar(32);not null;column:type" json:"type"`
	Read      bool           `gorm:"not null;default:false;index:notifications_user_read;column:read" json:"read"`
	Link      sql.NullString `gorm:"type:varchar(1024);column:link" json:"-"`
	Metadata  sql.NullString `gorm:"type:text;column:metadata" json:"-"`
	CreatedAt time.Time      `gorm:"not null;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
