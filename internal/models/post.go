package models

import (
	"time"
)

// PostStatus is the publication state of a post
type PostStatus string

// Post states. A rejected post goes back to DRAFT.
const (
	PostDraft     PostStatus = "DRAFT"
	PostPending   PostStatus = "PENDING"
	PostPublished PostStatus = "PUBLISHED"
)

// Post represents a community article going through review
type Post struct {
	ID          int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CommunityID int64      `gorm:"not null;index:posts_community_status;column:community_id" json:"community_id"`
	AuthorID    int64      `gorm:"not null;index;column:author_id" json:"author_id"`
	Title       string     `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Content     string     `gorm:"type:text;not null;column:content" json:"content"`
	Preview     string     `gorm:"type:varchar(1024);not null;default:'';column:preview" json:"preview"`
	Status      PostStatus `gorm:"type:varchar(16);not null;default:'DRAFT';index:posts_community_status;column:status" json:"status"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Verdict is a single reviewer's decision
type Verdict string

// Review verdicts
const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	return v == VerdictApproved || v == VerdictRejected
}

// Review is one contributor's verdict on a pending post
type Review struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID     int64     `gorm:"not null;uniqueIndex:reviews_post_reviewer_ux;column:post_id" json:"post_id"`
	ReviewerID int64     `gorm:"not null;uniqueIndex:reviews_post_reviewer_ux;column:reviewer_id" json:"reviewer_id"`
	Verdict    Verdict   `gorm:"type:varchar(16);not null;column:verdict" json:"verdict"`
	Feedback   string    `gorm:"type:varchar(5000);not null;default:'';column:feedback" json:"feedback"`
	CreatedAt  time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Review
func (Review) TableName() string {
	return "reviews"
}

// ContributionStatus is the state of an enrichment proposal
type ContributionStatus string

// Contribution states. APPROVED and REJECTED are terminal.
const (
	ContributionPending  ContributionStatus = "PENDING"
	ContributionApproved ContributionStatus = "APPROVED"
	ContributionRejected ContributionStatus = "REJECTED"
)

// Terminal reports whether no further votes are accepted.
func (s ContributionStatus) Terminal() bool {
	return s == ContributionApproved || s == ContributionRejected
}

// Contribution is a proposed replacement content for a published post
type Contribution struct {
	ID         int64              `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID     int64              `gorm:"not null;index;column:post_id" json:"post_id"`
	AuthorID   int64              `gorm:"not null;index;column:author_id" json:"author_id"`
	Content    string             `gorm:"type:text;not null;column:content" json:"content"`
	Summary    string             `gorm:"type:varchar(1000);not null;default:'';column:summary" json:"summary"`
	Status     ContributionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index;column:status" json:"status"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time          `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Contribution
func (Contribution) TableName() string {
	return "contributions"
}

// ContributionReview is one contributor's vote on a contribution
type ContributionReview struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ContributionID int64     `gorm:"not null;uniqueIndex:contribution_reviews_ux;column:contribution_id" json:"contribution_id"`
	VoterID        int64     `gorm:"not null;uniqueIndex:contribution_reviews_ux;column:voter_id" json:"voter_id"`
	Verdict        Verdict   `gorm:"type:varchar(16);not null;column:verdict" json:"verdict"`
	Comment        string    `gorm:"type:varchar(2000);not null;default:'';column:comment" json:"comment"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for ContributionReview
func (ContributionReview) TableName() string {
	return "contribution_reviews"
}
