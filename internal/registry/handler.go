package registry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
	"accord-registry/registry-backend/internal/dedup"
	"accord-registry/registry-backend/internal/escrow"
)

// Handler exposes the registry operations over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates a registry handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProject handles POST /projects
func (h *Handler) RegisterProject(c *gin.Context) {
	var req RegisterProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.RegisterProject(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProject handles GET /projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// ListProjects handles GET /projects
func (h *Handler) ListProjects(c *gin.Context) {
	filter := ProjectFilter{
		Owner:  c.Query("owner"),
		Status: VerificationStatus(c.Query("status")),
		Sector: ProjectSector(c.Query("sector")),
	}
	projects, err := h.service.ListProjects(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

type verifyRequest struct {
	VerifiedCarbonTons uint64 `json:"verified_carbon_tons" binding:"required"`
}

// VerifyProject handles POST /projects/:id/verify. The verifier identity
// is the authenticated caller, never request data, so escrow can only be
// released to whoever actually invoked the operation.
func (h *Handler) VerifyProject(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := access.Caller(c)
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity not established"})
		return
	}

	project, err := h.service.VerifyProject(c.Request.Context(), c.Param("id"), caller, req.VerifiedCarbonTons)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// MultiPartyVerify handles POST /projects/:id/verify/multi-party
func (h *Handler) MultiPartyVerify(c *gin.Context) {
	var req MultiPartyVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.MultiPartyVerify(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

type initVerificationRequest struct {
	VerifierAddress string `json:"verifier_address" binding:"required"`
	Fee             uint64 `json:"fee" binding:"required"`
}

// InitializeVerification handles POST /projects/:id/escrow
func (h *Handler) InitializeVerification(c *gin.Context) {
	var req initVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.InitializeVerification(c.Request.Context(), c.Param("id"), req.VerifierAddress, req.Fee)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// RejectProject handles POST /projects/:id/reject
func (h *Handler) RejectProject(c *gin.Context) {
	project, err := h.service.RejectProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// ApproveCompliance handles POST /projects/:id/compliance
func (h *Handler) ApproveCompliance(c *gin.Context) {
	var approval ComplianceApproval
	if err := c.ShouldBindJSON(&approval); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.ApproveCompliance(c.Request.Context(), c.Param("id"), approval)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// GetMarketplaceView handles GET /projects/:id/marketplace
func (h *Handler) GetMarketplaceView(c *gin.Context) {
	view, err := h.service.GetMarketplaceView(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetGlobalRegistry handles GET /registry
func (h *Handler) GetGlobalRegistry(c *gin.Context) {
	reg, err := h.service.GetGlobalRegistry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reg)
}

// statusFor maps service errors onto HTTP status codes following the
// error taxonomy: validation 400, not found 404, state conflicts 409,
// capacity/authorization 403/422.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrProjectExists),
		errors.Is(err, ErrProjectAlreadyProcessed),
		errors.Is(err, ErrVerifierNotActive),
		errors.Is(err, dedup.ErrCellAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorizedVerifier):
		return http.StatusForbidden
	case errors.Is(err, ErrProjectNotVerified),
		errors.Is(err, ErrComplianceNotApproved),
		errors.Is(err, ErrExceedsCapacity),
		errors.Is(err, escrow.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMathOverflow),
		errors.Is(err, escrow.ErrMathOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
