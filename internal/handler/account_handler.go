package handler

import (
	"net/http"

	"expenses/internal/service"
	"expenses/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService service.AccountService
	refService     service.ReferenceDataService
}

func NewAccountHandler(accountService service.AccountService, refService service.ReferenceDataService) *AccountHandler {
	return &AccountHandler{accountService: accountService, refService: refService}
}

func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/account", h.GetAccount)
	router.PUT("/account", h.UpdateAccount)
	router.GET("/currencies", h.ListCurrencies)
	router.GET("/categories", h.ListCategories)
}

// GetAccount godoc
// @Summary      Get the caller's account settings
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.AccountResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/account [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	account, err := h.accountService.GetAccount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// UpdateAccount godoc
// @Summary      Update the caller's default currency and substitute
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateAccountRequest  true  "Settings"
// @Success      200      {object}  response.Response{data=service.AccountResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/account [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// ListCurrencies godoc
// @Summary      List currencies
// @Tags         reference
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CurrencyResponse}
// @Router       /api/currencies [get]
func (h *AccountHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.refService.ListCurrencies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, currencies))
}

// ListCategories godoc
// @Summary      List receipt categories
// @Tags         reference
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CategoryResponse}
// @Router       /api/categories [get]
func (h *AccountHandler) ListCategories(c *gin.Context) {
	categories, err := h.refService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}
