package verifiers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
)

// Handler exposes the verifier directory over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates a verifier directory handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /verifiers
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verifier, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrVerifierExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, verifier)
}

// Get handles GET /verifiers/:address
func (h *Handler) Get(c *gin.Context) {
	verifier, err := h.service.Get(c.Request.Context(), c.Param("address"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrVerifierNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, verifier)
}

// List handles GET /verifiers
func (h *Handler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	list, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifiers": list, "count": len(list)})
}

// RegisterRoutes wires the verifier directory endpoints onto a router
// group.
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, authorizer access.Authorizer) {
	rg.POST("/verifiers", access.Require(authorizer, access.PermAssignRoles), handler.Register)
	rg.GET("/verifiers", handler.List)
	rg.GET("/verifiers/:address", handler.Get)
}
