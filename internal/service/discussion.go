package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
)

// QuestionThread is a question with its answers
type QuestionThread struct {
	*models.Question
	Answers []*models.Answer `json:"answers"`
}

// DiscussionService handles comments and Q&A
type DiscussionService struct {
	discussion DiscussionStore
	posts      PostStore
	roles      Roles
	notifier   Notifier
}

// NewDiscussionService creates a discussion service
func NewDiscussionService(discussion DiscussionStore, posts PostStore, roles Roles, notifier Notifier) *DiscussionService {
	return &DiscussionService{discussion: discussion, posts: posts, roles: roles, notifier: notifier}
}

func (s *DiscussionService) requireMember(ctx context.Context, communityID, userID int64) error {
	role, err := s.roles.Role(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !membership.IsMember(role) {
		return errs.E(errs.Forbidden, "only members can take part in discussions")
	}
	return nil
}

// AddComment comments on a published post. parentID, when set, must be a
// comment on the same post.
func (s *DiscussionService) AddComment(ctx context.Context, authorID, postID int64, parentID *int64, body string) (*models.Comment, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostPublished {
		return nil, errs.E(errs.NotFound, "post not found")
	}
	if err := s.requireMember(ctx, post.CommunityID, authorID); err != nil {
		return nil, err
	}
	if err := required("body", body, 10000); err != nil {
		return nil, err
	}

	recipients := []int64{post.AuthorID}
	if parentID != nil {
		parent, err := s.discussion.GetComment(ctx, *parentID)
		if err != nil {
			return nil, internal(err, "load parent comment")
		}
		if parent == nil || parent.PostID != postID {
			return nil, errs.E(errs.Invalid, "parent comment does not belong to this post")
		}
		recipients = append(recipients, parent.AuthorID)
	}

	c := &models.Comment{PostID: postID, AuthorID: authorID, ParentID: parentID, Body: strings.TrimSpace(body)}
	if err := s.discussion.CreateComment(ctx, c); err != nil {
		return nil, internal(err, "create comment")
	}

	s.notifier.Send(ctx, notify.Notice{
		Recipients: notify.Except(recipients, authorID),
		Title:      "New comment",
		Message:    fmt.Sprintf("New comment on %q", post.Title),
		Type:       models.NotifyComment,
		Link:       fmt.Sprintf("/posts/%d#comment-%d", postID, c.ID),
		Metadata:   map[string]interface{}{"postId": postID, "commentId": c.ID},
	})
	return c, nil
}

// Comments lists the comments of a published post
func (s *DiscussionService) Comments(ctx context.Context, postID int64, offset, limit int) ([]*models.Comment, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostPublished {
		return nil, errs.E(errs.NotFound, "post not found")
	}
	offset, limit = page(offset, limit)
	list, err := s.discussion.ListComments(ctx, postID, offset, limit)
	return list, internal(err, "list comments")
}

// DeleteComment deletes a comment; author only
func (s *DiscussionService) DeleteComment(ctx context.Context, authorID, id int64) error {
	c, err := s.discussion.GetComment(ctx, id)
	if err != nil {
		return internal(err, "load comment")
	}
	if c == nil {
		return errs.E(errs.NotFound, "comment not found")
	}
	if c.AuthorID != authorID {
		return errs.E(errs.Forbidden, "only the author can delete this comment")
	}
	if _, err := s.discussion.DeleteComment(ctx, id, authorID); err != nil {
		return internal(err, "delete comment")
	}
	return nil
}

// Ask opens a question in a community; members only
func (s *DiscussionService) Ask(ctx context.Context, authorID, communityID int64, title, body string) (*models.Question, error) {
	if err := s.requireMember(ctx, communityID, authorID); err != nil {
		return nil, err
	}
	if err := required("title", title, 255); err != nil {
		return nil, err
	}
	if err := required("body", body, 0); err != nil {
		return nil, err
	}
	q := &models.Question{
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       strings.TrimSpace(title),
		Body:        strings.TrimSpace(body),
	}
	if err := s.discussion.CreateQuestion(ctx, q); err != nil {
		return nil, internal(err, "create question")
	}
	return q, nil
}

// Questions lists a community's questions
func (s *DiscussionService) Questions(ctx context.Context, communityID int64, offset, limit int) ([]*models.Question, error) {
	offset, limit = page(offset, limit)
	list, err := s.discussion.ListQuestions(ctx, communityID, offset, limit)
	return list, internal(err, "list questions")
}

// Question returns a question with its answers
func (s *DiscussionService) Question(ctx context.Context, id int64) (*QuestionThread, error) {
	q, err := s.loadQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.discussion.ListAnswers(ctx, id)
	if err != nil {
		return nil, internal(err, "list answers")
	}
	return &QuestionThread{Question: q, Answers: answers}, nil
}

// Answer replies to a question; members only
func (s *DiscussionService) Answer(ctx context.Context, authorID, questionID int64, body string) (*models.Answer, error) {
	q, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, q.CommunityID, authorID); err != nil {
		return nil, err
	}
	if err := required("body", body, 0); err != nil {
		return nil, err
	}

	a := &models.Answer{QuestionID: questionID, AuthorID: authorID, Body: strings.TrimSpace(body)}
	if err := s.discussion.CreateAnswer(ctx, a); err != nil {
		return nil, internal(err, "create answer")
	}

	s.notifier.Send(ctx, notify.Notice{
		Recipients: notify.Except([]int64{q.AuthorID}, authorID),
		Title:      "New answer",
		Message:    fmt.Sprintf("Your question %q has a new answer", q.Title),
		Type:       models.NotifyAnswer,
		Link:       fmt.Sprintf("/questions/%d", questionID),
		Metadata:   map[string]interface{}{"questionId": questionID, "answerId": a.ID},
	})
	return a, nil
}

// Accept marks an answer as accepted; question author only
func (s *DiscussionService) Accept(ctx context.Context, actorID, questionID, answerID int64) (*models.Question, error) {
	q, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actorID {
		return nil, errs.E(errs.Forbidden, "only the author can accept an answer")
	}
	a, err := s.discussion.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, internal(err, "load answer")
	}
	if a == nil || a.QuestionID != questionID {
		return nil, errs.E(errs.Invalid, "answer does not belong to this question")
	}
	if err := s.discussion.AcceptAnswer(ctx, questionID, answerID); err != nil {
		return nil, internal(err, "accept answer")
	}
	q.AcceptedAnswerID = &answerID
	return q, nil
}

// DeleteQuestion deletes a question and its answers; author only
func (s *DiscussionService) DeleteQuestion(ctx context.Context, actorID, id int64) error {
	q, err := s.loadQuestion(ctx, id)
	if err != nil {
		return err
	}
	if q.AuthorID != actorID {
		return errs.E(errs.Forbidden, "only the author can delete this question")
	}
	if _, err := s.discussion.DeleteQuestion(ctx, id, actorID); err != nil {
		return internal(err, "delete question")
	}
	return nil
}

func (s *DiscussionService) loadQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.discussion.GetQuestion(ctx, id)
	if err != nil {
		return nil, internal(err, "load question")
	}
	if q == nil {
		return nil, errs.E(errs.NotFound, "question not found")
	}
	return q, nil
}
