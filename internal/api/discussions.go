package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Body     string `json:"body"`
	ParentID *int64 `json:"parent_id"`
}

type questionRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type answerRequest struct {
	Body string `json:"body"`
}

type acceptRequest struct {
	AnswerID int64 `json:"answer_id" binding:"required"`
}

type conversationRequest struct {
	ParticipantID int64 `json:"participant_id" binding:"required"`
}

type messageRequest struct {
	Body string `json:"body"`
}

func (r *Router) addComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := r.svc.Discussion.AddComment(c.Request.Context(), currentUser(c), postID, req.ParentID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (r *Router) listComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Discussion.Comments(c.Request.Context(), postID, queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) deleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Discussion.DeleteComment(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) askQuestion(c *gin.Context) {
	communityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !bind(c, &req) {
		return
	}
	q, err := r.svc.Discussion.Ask(c.Request.Context(), currentUser(c), communityID, req.Title, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (r *Router) listQuestions(c *gin.Context) {
	communityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Discussion.Questions(c.Request.Context(), communityID, queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) getQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	thread, err := r.svc.Discussion.Question(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (r *Router) deleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Discussion.DeleteQuestion(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) answerQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req answerRequest
	if !bind(c, &req) {
		return
	}
	answer, err := r.svc.Discussion.Answer(c.Request.Context(), currentUser(c), id, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (r *Router) acceptAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req acceptRequest
	if !bind(c, &req) {
		return
	}
	q, err := r.svc.Discussion.Accept(c.Request.Context(), currentUser(c), id, req.AnswerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (r *Router) startConversation(c *gin.Context) {
	var req conversationRequest
	if !bind(c, &req) {
		return
	}
	conv, err := r.svc.Conversations.Start(c.Request.Context(), currentUser(c), req.ParticipantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (r *Router) listConversations(c *gin.Context) {
	list, err := r.svc.Conversations.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) deleteConversation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Conversations.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) sendMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !bind(c, &req) {
		return
	}
	msg, err := r.svc.Conversations.Send(c.Request.Context(), currentUser(c), id, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (r *Router) listMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Conversations.Messages(c.Request.Context(), currentUser(c), id,
		queryInt64(c, "after_id"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
