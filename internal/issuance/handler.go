package issuance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
	"accord-registry/registry-backend/internal/registry"
)

// Handler exposes minting over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates an issuance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type mintRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
}

// Mint handles POST /projects/:id/mint
func (h *Handler) Mint(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.Mint(c.Request.Context(), c.Param("id"), req.Recipient, req.Amount)
	if err != nil {
		c.JSON(mintStatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":     project.ProjectID,
		"tokens_minted":  project.TokensMinted,
		"credits_issued": project.CreditsIssued,
	})
}

// BatchMint handles POST /projects/:id/mint/batch
func (h *Handler) BatchMint(c *gin.Context) {
	var req BatchMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.BatchMint(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(mintStatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":     project.ProjectID,
		"tokens_minted":  project.TokensMinted,
		"credits_issued": project.CreditsIssued,
	})
}

func mintStatusFor(err error) int {
	switch err {
	case registry.ErrProjectNotFound:
		return http.StatusNotFound
	case registry.ErrProjectNotVerified, registry.ErrComplianceNotApproved, registry.ErrExceedsCapacity:
		return http.StatusUnprocessableEntity
	case registry.ErrRecipientCountMismatch, registry.ErrMathOverflow:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// RegisterRoutes wires the issuance endpoints onto a router group.
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, authorizer access.Authorizer) {
	rg.POST("/projects/:id/mint", access.Require(authorizer, access.PermMintCredits), handler.Mint)
	rg.POST("/projects/:id/mint/batch", access.Require(authorizer, access.PermMintCredits), handler.BatchMint)
}
