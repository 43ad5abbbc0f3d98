package impact

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
)

// Handler exposes impact reporting over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates an impact handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /impact
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, report)
}

// List handles GET /impact/:projectID
func (h *Handler) List(c *gin.Context) {
	reports, err := h.service.ListByProject(c.Request.Context(), c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// RegisterRoutes wires the impact endpoints onto a router group.
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, authorizer access.Authorizer) {
	rg.POST("/impact", access.Require(authorizer, access.PermSubmitMonitoring), handler.Submit)
	rg.GET("/impact/:projectID", handler.List)
}
