package models

import (
	"time"
)

// Community represents a community
type Community struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name        string    `gorm:"type:varchar(64);not null;uniqueIndex:communities_name_ux;column:name" json:"name"`
	Title       string    `gorm:"type:varchar(128);not null;default:'';column:title" json:"title"`
	Description string    `gorm:"type:varchar(5000);not null;default:'';column:description" json:"description"`
	AvatarURL   string    `gorm:"type:varchar(1024);not null;default:'';column:avatar_url" json:"avatar_url"`
	CreatorID   int64     `gorm:"not null;index;column:creator_id" json:"creator_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Community
func (Community) TableName() string {
	return "communities"
}

// Role is a member's standing inside one community
type Role string

// Role constants. A user holds at most one tagged role per community.
const (
	RoleNone        Role = ""
	RoleLearner     Role = "learner"
	RoleContributor Role = "contributor"
	RoleCreator     Role = "creator"
)

// Rank orders roles by precedence: creator > contributor > learner > none.
func (r Role) Rank() int {
	switch r {
	case RoleCreator:
		return 3
	case RoleContributor:
		return 2
	case RoleLearner:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the stored role tags.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// Membership represents a user's role in a community
type Membership struct {
	CommunityID int64     `gorm:"primaryKey;autoIncrement:false;column:community_id" json:"community_id"`
	UserID      int64     `gorm:"primaryKey;autoIncrement:false;index;column:user_id" json:"user_id"`
	Role        Role      `gorm:"type:varchar(16);not null;default:'learner';index;column:role" json:"role"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName specifies the table name for Membership
func (Membership) TableName() string {
	return "memberships"
}

// RequestStatus is the state of a contributor request
type RequestStatus string

// Contributor request states
const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ContributorRequest is a learner asking to become a contributor
type ContributorRequest struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CommunityID int64         `gorm:"not null;index:contributor_requests_cu;column:community_id" json:"community_id"`
	UserID      int64         `gorm:"not null;index:contributor_requests_cu;column:user_id" json:"user_id"`
	Motivation  string        `gorm:"type:varchar(2000);not null;default:'';column:motivation" json:"motivation"`
	Status      RequestStatus `gorm:"type:varchar(16);not null;default:'PENDING';index;column:status" json:"status"`
	ReviewedBy  *int64        `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for ContributorRequest
func (ContributorRequest) TableName() string {
	return "contributor_requests"
}

// Ban bars a user from a community
type Ban struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CommunityID int64     `gorm:"not null;uniqueIndex:bans_community_user_ux;column:community_id" json:"community_id"`
	UserID      int64     `gorm:"not null;uniqueIndex:bans_community_user_ux;column:user_id" json:"user_id"`
	BannedBy    int64     `gorm:"not null;column:banned_by" json:"banned_by"`
	Reason      string    `gorm:"type:varchar(500);not null;default:'';column:reason" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Ban
func (Ban) TableName() string {
	return "bans"
}
