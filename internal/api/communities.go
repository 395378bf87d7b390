package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/service"
)

type communityRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

func (req communityRequest) input() service.CommunityInput {
	return service.CommunityInput{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	}
}

type contributorRequestBody struct {
	Motivation string `json:"motivation"`
}

type banRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

func (r *Router) createCommunity(c *gin.Context) {
	var req communityRequest
	if !bind(c, &req) {
		return
	}
	community, err := r.svc.Communities.Create(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (r *Router) listCommunities(c *gin.Context) {
	list, err := r.svc.Communities.List(c.Request.Context(), queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) getCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	community, err := r.svc.Communities.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (r *Router) updateCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req communityRequest
	if !bind(c, &req) {
		return
	}
	community, err := r.svc.Communities.Update(c.Request.Context(), currentUser(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (r *Router) myRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	role, err := r.svc.Communities.Role(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community_id": id, "role": role})
}

func (r *Router) joinCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := r.svc.Communities.Join(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (r *Router) leaveCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Communities.Leave(c.Request.Context(), id, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) listMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Communities.Members(c.Request.Context(), id, models.Role(c.Query("role")),
		queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) requestContributor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contributorRequestBody
	if !bindOptional(c, &req) {
		return
	}
	created, err := r.svc.Communities.RequestContributor(c.Request.Context(), id, currentUser(c), req.Motivation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (r *Router) listRequests(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status := models.RequestStatus(c.DefaultQuery("status", string(models.RequestPending)))
	list, err := r.svc.Communities.Requests(c.Request.Context(), currentUser(c), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) approveRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := r.svc.Communities.ApproveRequest(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (r *Router) rejectRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := r.svc.Communities.RejectRequest(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (r *Router) banUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req banRequest
	if !bind(c, &req) {
		return
	}
	ban, err := r.svc.Communities.Ban(c.Request.Context(), currentUser(c), id, req.UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ban)
}

func (r *Router) unbanUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := r.svc.Communities.Unban(c.Request.Context(), currentUser(c), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) listBans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := r.svc.Communities.Bans(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
