package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanport.io/portal/internal/notification"
)

// ListNotifications handles GET /notifications. An unread=true query limits
// the result to unread entries.
func (s *Server) ListNotifications(c *gin.Context) {
	items, err := s.inbox.List(c.Request.Context(), actorFromCtx(c), c.Query("unread") == "true")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if items == nil {
		items = []notification.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.inbox.MarkRead(c.Request.Context(), actorFromCtx(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
