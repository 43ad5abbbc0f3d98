package monitoring

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
	"accord-registry/registry-backend/internal/registry"
)

// Handler exposes monitoring ingestion over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates a monitoring handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /monitoring
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, registry.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// History handles GET /monitoring/:projectID
func (h *Handler) History(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	snapshots, err := h.service.History(c.Request.Context(), c.Param("projectID"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots, "count": len(snapshots)})
}

// RegisterRoutes wires the monitoring endpoints onto a router group.
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, authorizer access.Authorizer) {
	rg.POST("/monitoring", access.Require(authorizer, access.PermSubmitMonitoring), handler.Submit)
	rg.GET("/monitoring/:projectID", handler.History)
}
