package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"expenses/internal/service"
	"expenses/pkg/response"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	listingService service.ListingService
}

func NewListingHandler(listingService service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

func (h *ListingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/your-expenses/:category/:page", h.YourExpenses)
	router.GET("/manager/:group/:page", h.ManagerClaims)

	// query-string forms
	router.GET("/claims", h.YourExpensesQuery)
	router.GET("/manager/:group", h.ManagerClaimsQuery)
}

// YourExpenses godoc
// @Summary      List the caller's claims
// @Description  One page of the caller's claims in a status category, most recently changed first. An out-of-range page redirects.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        category  path      string  true  "all, draft, pending, accepted or rejected"
// @Param        page      path      int     true  "Page number"
// @Success      200       {object}  response.Response{data=service.ClaimPage}
// @Success      302
// @Failure      403       {object}  response.Response
// @Router       /api/your-expenses/{category}/{page} [get]
func (h *ListingHandler) YourExpenses(c *gin.Context) {
	page, ok := pathPage(c)
	if !ok {
		return
	}
	category := c.Param("category")
	h.yourExpenses(c, category, page, func(n int) string {
		return fmt.Sprintf("/api/your-expenses/%s/%d", url.PathEscape(category), n)
	})
}

// YourExpensesQuery godoc
// @Summary      List the caller's claims (query form)
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Status category (default all)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Success      200       {object}  response.Response{data=service.ClaimPage}
// @Success      302
// @Failure      403       {object}  response.Response
// @Router       /api/claims [get]
func (h *ListingHandler) YourExpensesQuery(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	category := c.DefaultQuery("category", "all")
	h.yourExpenses(c, category, page, func(n int) string {
		q := url.Values{"category": {category}, "page": {strconv.Itoa(n)}}
		return "/api/claims?" + q.Encode()
	})
}

// ManagerClaims godoc
// @Summary      List claims awaiting the caller's review
// @Description  Pending claims of the caller's team (your-team) or of teams the caller substitutes for (other-teams), most recently submitted first.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        group  path      string  true  "your-team or other-teams"
// @Param        page   path      int     true  "Page number"
// @Success      200    {object}  response.Response{data=service.ClaimPage}
// @Success      302
// @Failure      403    {object}  response.Response
// @Router       /api/manager/{group}/{page} [get]
func (h *ListingHandler) ManagerClaims(c *gin.Context) {
	page, ok := pathPage(c)
	if !ok {
		return
	}
	group := c.Param("group")
	h.managerClaims(c, group, page, func(n int) string {
		return fmt.Sprintf("/api/manager/%s/%d", url.PathEscape(group), n)
	})
}

// ManagerClaimsQuery godoc
// @Summary      List claims awaiting the caller's review (query form)
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        group  path      string  true   "your-team or other-teams"
// @Param        page   query     int     false  "Page number (default 1)"
// @Success      200    {object}  response.Response{data=service.ClaimPage}
// @Success      302
// @Failure      403    {object}  response.Response
// @Router       /api/manager/{group} [get]
func (h *ListingHandler) ManagerClaimsQuery(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	group := c.Param("group")
	h.managerClaims(c, group, page, func(n int) string {
		return fmt.Sprintf("/api/manager/%s?page=%d", url.PathEscape(group), n)
	})
}

func (h *ListingHandler) yourExpenses(c *gin.Context, category string, page int, location func(int) string) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	result, err := h.listingService.YourExpenses(c.Request.Context(), actor, category, page)
	renderPage(c, result, err, location)
}

func (h *ListingHandler) managerClaims(c *gin.Context, group string, page int, location func(int) string) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	result, err := h.listingService.ManagerClaims(c.Request.Context(), actor, group, page)
	renderPage(c, result, err, location)
}

func renderPage(c *gin.Context, result *service.ClaimPage, err error, location func(int) string) {
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Page.NeedsRedirect() {
		c.Redirect(http.StatusFound, location(result.Page.RedirectTo))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// pathPage only accepts digits, so "/draft/x" is not a listing.
func pathPage(c *gin.Context) (int, bool) {
	return parsePage(c, c.Param("page"))
}

func queryPage(c *gin.Context) (int, bool) {
	return parsePage(c, c.DefaultQuery("page", "1"))
}

func parsePage(c *gin.Context, raw string) (int, bool) {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 || raw == "" || raw[0] == '+' {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "page not found"))
		return 0, false
	}
	return page, true
}
