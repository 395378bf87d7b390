package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steemit/agora/internal/content"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/service"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type reviewRequest struct {
	Verdict  models.Verdict `json:"verdict" binding:"required"`
	Feedback string         `json:"feedback"`
}

type contributionRequest struct {
	Content string `json:"content"`
	Summary string `json:"summary"`
}

type voteRequest struct {
	Verdict models.Verdict `json:"verdict" binding:"required"`
	Comment string         `json:"comment"`
}

// postView is a full post with the media it references
type postView struct {
	*models.Post
	Images []string `json:"images,omitempty"`
	Links  []string `json:"links,omitempty"`
}

func (r *Router) createPost(c *gin.Context) {
	communityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if !bind(c, &req) {
		return
	}
	post, err := r.svc.Posts.Create(c.Request.Context(), currentUser(c), communityID,
		service.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (r *Router) listPosts(c *gin.Context) {
	communityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Posts.List(c.Request.Context(), currentUser(c), communityID,
		models.PostStatus(c.Query("status")), queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) myPosts(c *gin.Context) {
	list, err := r.svc.Posts.Mine(c.Request.Context(), currentUser(c), queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) getPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := r.svc.Posts.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postView{Post: post, Images: content.Images(post.Content), Links: content.Links(post.Content)})
}

func (r *Router) updatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if !bind(c, &req) {
		return
	}
	post, err := r.svc.Posts.Update(c.Request.Context(), currentUser(c), id,
		service.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) deletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Posts.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) submitPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := r.svc.Posts.Submit(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) submitReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bind(c, &req) {
		return
	}
	res, err := r.svc.Reviews.Submit(c.Request.Context(), currentUser(c), id, req.Verdict, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (r *Router) listReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Reviews.Reviews(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) postStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := r.svc.Reviews.Status(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) proposeContribution(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contributionRequest
	if !bind(c, &req) {
		return
	}
	contribution, err := r.svc.Contributions.Propose(c.Request.Context(), currentUser(c), postID, req.Content, req.Summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contribution)
}

func (r *Router) listContributions(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Contributions.List(c.Request.Context(), postID, models.ContributionStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) getContribution(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contribution, err := r.svc.Contributions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contribution)
}

func (r *Router) voteContribution(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bind(c, &req) {
		return
	}
	res, err := r.svc.Contributions.Vote(c.Request.Context(), currentUser(c), id, req.Verdict, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
