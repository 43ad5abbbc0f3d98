package registry

import (
	"github.com/gin-gonic/gin"

	"accord-registry/registry-backend/internal/access"
)

// RegisterRoutes wires the registry endpoints onto a router group. Every
// mutating route asserts the caller's permission bit through the external
// authorizer.
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, authorizer access.Authorizer) {
	rg.POST("/projects", access.Require(authorizer, access.PermRegisterProject), handler.RegisterProject)
	rg.GET("/projects", handler.ListProjects)
	rg.GET("/projects/:id", handler.GetProject)
	rg.GET("/projects/:id/marketplace", handler.GetMarketplaceView)

	rg.POST("/projects/:id/escrow", access.Require(authorizer, access.PermRegisterProject), handler.InitializeVerification)
	rg.POST("/projects/:id/verify", access.Require(authorizer, access.PermVerifyProject), handler.VerifyProject)
	rg.POST("/projects/:id/verify/multi-party", access.Require(authorizer, access.PermVerifyProject), handler.MultiPartyVerify)
	rg.POST("/projects/:id/reject", access.Require(authorizer, access.PermVerifyProject), handler.RejectProject)
	rg.POST("/projects/:id/compliance", access.Require(authorizer, access.PermApproveCompliance), handler.ApproveCompliance)

	rg.GET("/registry", handler.GetGlobalRegistry)
}
