package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steemit/agora/internal/models"
)

type notificationView struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"userId"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      models.NotifyType `json:"type"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
	Link      string            `json:"link,omitempty"`
	Metadata  json.RawMessage   `json:"metadata,omitempty"`
}

func newNotificationView(n *models.Notification) notificationView {
	v := notificationView{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Link.Valid {
		v.Link = n.Link.String
	}
	if n.Metadata.Valid && json.Valid([]byte(n.Metadata.String)) {
		v.Metadata = json.RawMessage(n.Metadata.String)
	}
	return v
}

func (r *Router) listNotifications(c *gin.Context) {
	list, err := r.svc.Notifications.List(c.Request.Context(), currentUser(c),
		c.Query("unread") == "true", queryInt64(c, "last_id"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]notificationView, 0, len(list))
	for _, n := range list {
		views = append(views, newNotificationView(n))
	}
	c.JSON(http.StatusOK, views)
}

func (r *Router) unreadCount(c *gin.Context) {
	n, err := r.svc.Notifications.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (r *Router) markRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Notifications.MarkRead(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) markAllRead(c *gin.Context) {
	n, err := r.svc.Notifications.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}
