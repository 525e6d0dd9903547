package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/repository"
	"github.com/flicky/agri-backoffice/internal/service"
)

const auditPageSize = 50

type DashboardHandler struct {
	dashboard  *service.DashboardService
	statistics *service.StatisticsService
	audit      repository.AuditRepository
}

func NewDashboardHandler(dashboard *service.DashboardService, statistics *service.StatisticsService, audit repository.AuditRepository) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, statistics: statistics, audit: audit}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Statistics accepts ?period=week|month|year|all, defaulting to month.
func (h *DashboardHandler) Statistics(c *gin.Context) {
	stats, err := h.statistics.Charts(c.Request.Context(), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Audit lists the recorded workflow events for one entity, newest first.
func (h *DashboardHandler) Audit(c *gin.Context) {
	limit := auditPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, 500)
	}

	entries, err := h.audit.ListByEntity(c.Request.Context(), c.Param("entity"), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{
			ID:        e.ID,
			EventID:   e.EventID,
			Action:    e.Action,
			ActorID:   e.ActorID,
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "total": len(out)})
}
