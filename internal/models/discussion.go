package models

import (
	"time"
)

// Comment is a reply on a published post
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID    int64     `gorm:"not null;index;column:post_id" json:"post_id"`
	AuthorID  int64     `gorm:"not null;column:author_id" json:"author_id"`
	ParentID  *int64    `gorm:"index;column:parent_id" json:"parent_id,omitempty"`
	Body      string    `gorm:"type:varchar(10000);not null;column:body" json:"body"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// Question is a Q&A thread inside a community
type Question struct {
	ID               int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CommunityID      int64     `gorm:"not null;index;column:community_id" json:"community_id"`
	AuthorID         int64     `gorm:"not null;column:author_id" json:"author_id"`
	Title            string    `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Body             string    `gorm:"type:text;not null;column:body" json:"body"`
	AcceptedAnswerID *int64    `gorm:"column:accepted_answer_id" json:"accepted_answer_id,omitempty"`
	CreatedAt        time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Question
func (Question) TableName() string {
	return "questions"
}

// Answer replies to a Question
type Answer struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	QuestionID int64     `gorm:"not null;index;column:question_id" json:"question_id"`
	AuthorID   int64     `gorm:"not null;column:author_id" json:"author_id"`
	Body       string    `gorm:"type:text;not null;column:body" json:"body"`
	CreatedAt  time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Answer
func (Answer) TableName() string {
	return "answers"
}

// Conversation is a private thread between two users
type Conversation struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CreatorID     int64     `gorm:"not null;index;column:creator_id" json:"creator_id"`
	ParticipantID int64     `gorm:"not null;index;column:participant_id" json:"participant_id"`
	CreatedAt     time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Includes reports whether userID takes part in the conversation.
func (c *Conversation) Includes(userID int64) bool {
	return c.CreatorID == userID || c.ParticipantID == userID
}

// Message is a single entry in a Conversation
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ConversationID int64     `gorm:"not null;index;column:conversation_id" json:"conversation_id"`
	SenderID       int64     `gorm:"not null;column:sender_id" json:"sender_id"`
	Body           string    `gorm:"type:varchar(5000);not null;column:body" json:"body"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}
