package handler

import (
	"net/http"

	"expenses/internal/service"
	"expenses/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClaimHandler struct {
	claimService   service.ClaimService
	receiptService service.ReceiptService
	exportService  service.ExportService
}

func NewClaimHandler(claims service.ClaimService, receipts service.ReceiptService, export service.ExportService) *ClaimHandler {
	return &ClaimHandler{claimService: claims, receiptService: receipts, exportService: export}
}

// RegisterRoutes expects router to be behind middleware.RequireAuth.
func (h *ClaimHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/claims")
	{
		claims.POST("", h.CreateClaim)
		claims.GET("/:ref", h.GetClaim)
		claims.PUT("/:ref", h.EditClaim)
		claims.DELETE("/:ref", h.DeleteClaim)
		claims.POST("/:ref/submit", h.SubmitClaim)
		claims.POST("/:ref/approve", h.ApproveClaim)
		claims.POST("/:ref/return", h.ReturnClaim)
		claims.POST("/:ref/receipts", h.CreateReceipt)
		claims.GET("/:ref/export.xlsx", h.ExportClaim)
	}
}

// CreateClaim godoc
// @Summary      Create a claim
// @Description  Creates a draft claim owned by the caller. An empty currency uses the caller's default.
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateClaimRequest  true  "Claim"
// @Success      201      {object}  response.Response{data=service.ClaimDetail}
// @Failure      400      {object}  response.Response
// @Router       /api/claims [post]
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claim, err := h.claimService.CreateClaim(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, claim))
}

// GetClaim godoc
// @Summary      Get a claim
// @Description  Returns a claim with its receipts, feedback and the caller's capabilities
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Claim reference"
// @Success      200  {object}  response.Response{data=service.ClaimDetail}
// @Failure      403  {object}  response.Response
// @Router       /api/claims/{ref} [get]
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.GetClaim(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// EditClaim godoc
// @Summary      Edit a claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ref      path      string                    true  "Claim reference"
// @Param        payload  body      service.EditClaimRequest  true  "Claim"
// @Success      200      {object}  response.Response{data=service.ClaimDetail}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/claims/{ref} [put]
func (h *ClaimHandler) EditClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.EditClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claim, err := h.claimService.EditClaim(c.Request.Context(), actor, c.Param("ref"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// DeleteClaim godoc
// @Summary      Delete a claim
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Claim reference"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/claims/{ref} [delete]
func (h *ClaimHandler) DeleteClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.claimService.DeleteClaim(c.Request.Context(), actor, c.Param("ref")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Claim deleted successfully"}))
}

// SubmitClaim godoc
// @Summary      Submit a claim for approval
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Claim reference"
// @Success      200  {object}  response.Response{data=service.ClaimDetail}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/claims/{ref}/submit [post]
func (h *ClaimHandler) SubmitClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.SubmitClaim(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// ApproveClaim godoc
// @Summary      Approve a pending claim
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Claim reference"
// @Success      200  {object}  response.Response{data=service.ClaimDetail}
// @Failure      403  {object}  response.Response
// @Router       /api/claims/{ref}/approve [post]
func (h *ClaimHandler) ApproveClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.ApproveClaim(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// ReturnClaim godoc
// @Summary      Return a pending claim to its owner
// @Description  Rejects the claim and records the comment as feedback
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ref      path      string                      true  "Claim reference"
// @Param        payload  body      service.ReturnClaimRequest  true  "Feedback"
// @Success      200      {object}  response.Response{data=service.ClaimDetail}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/claims/{ref}/return [post]
func (h *ClaimHandler) ReturnClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.ReturnClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claim, err := h.claimService.ReturnClaim(c.Request.Context(), actor, c.Param("ref"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// CreateReceipt godoc
// @Summary      Add a receipt to a claim
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ref      path      string                  true  "Claim reference"
// @Param        payload  body      service.ReceiptRequest  true  "Receipt"
// @Success      201      {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/claims/{ref}/receipts [post]
func (h *ClaimHandler) CreateReceipt(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), actor, c.Param("ref"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}

// ExportClaim godoc
// @Summary      Download a claim as a spreadsheet
// @Tags         claims
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        ref  path  string  true  "Claim reference"
// @Success      200  {file}    file
// @Failure      403  {object}  response.Response
// @Router       /api/claims/{ref}/export.xlsx [get]
func (h *ClaimHandler) ExportClaim(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	export, err := h.exportService.ExportClaim(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.Content)
}
