package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/breadlog-backend/internal/http/response"
)

// HealthHandler serves liveness and database readiness probes.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler { return &HealthHandler{db: db} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready pings the database. Without a database it reports ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		response.RespondOK(c, gin.H{"status": "ready"})
		return
	}
	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err = sqlDB.PingContext(ctx)
		cancel()
	}
	if err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "database_unavailable", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "ready"})
}
