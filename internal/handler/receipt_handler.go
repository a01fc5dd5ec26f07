package handler

import (
	"net/http"

	"expenses/internal/service"
	"expenses/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReceiptHandler struct {
	receiptService service.ReceiptService
}

func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/receipts")
	{
		receipts.GET("/:ref", h.GetReceipt)
		receipts.PUT("/:ref", h.EditReceipt)
		receipts.DELETE("/:ref", h.DeleteReceipt)
	}
}

// GetReceipt godoc
// @Summary      Get a receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Receipt reference"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/receipts/{ref} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// EditReceipt godoc
// @Summary      Edit a receipt
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ref      path      string                  true  "Receipt reference"
// @Param        payload  body      service.ReceiptRequest  true  "Receipt"
// @Success      200      {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/receipts/{ref} [put]
func (h *ReceiptHandler) EditReceipt(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	receipt, err := h.receiptService.EditReceipt(c.Request.Context(), actor, c.Param("ref"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// DeleteReceipt godoc
// @Summary      Delete a receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Receipt reference"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/receipts/{ref} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.receiptService.DeleteReceipt(c.Request.Context(), actor, c.Param("ref")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Receipt deleted successfully"}))
}
