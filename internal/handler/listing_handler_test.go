package handler_test

import (
	"net/http"

	"expenses/internal/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listing routes", func() {
	var (
		api            *testAPI
		manager, owner string
	)

	BeforeEach(func() {
		api = newTestAPI()
		manager = api.user("manager@example.com", "", false)
		owner = api.user("owner@example.com", "manager@example.com", false)
		rec := api.do(http.MethodPost, "/api/claims", owner, map[string]string{"description": "Only one"})
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("lists the caller's claims", func() {
		rec := api.do(http.MethodGet, "/api/your-expenses/draft/1", owner, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page service.ClaimPage
		decodeData(rec, &page)
		Expect(page.Claims).To(HaveLen(1))
		Expect(page.Page.Total).To(BeEquivalentTo(1))
	})

	It("redirects past the last page", func() {
		rec := api.do(http.MethodGet, "/api/your-expenses/draft/2", owner, nil)
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/api/your-expenses/draft/1"))

		rec = api.do(http.MethodGet, "/api/claims?category=draft&page=4", owner, nil)
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/api/claims?category=draft&page=1"))
	})

	It("redirects an empty listing's later pages to page 1", func() {
		rec := api.do(http.MethodGet, "/api/manager/your-team?page=3", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/api/manager/your-team?page=1"))

		rec = api.do(http.MethodGet, "/api/manager/your-team/1", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page service.ClaimPage
		decodeData(rec, &page)
		Expect(page.IsManager).To(BeTrue())
		Expect(page.Claims).To(BeEmpty())
	})

	It("denies unknown categories and groups", func() {
		Expect(api.do(http.MethodGet, "/api/your-expenses/archived/1", owner, nil).Code).To(Equal(http.StatusForbidden))
		Expect(api.do(http.MethodGet, "/api/manager/everyone/1", manager, nil).Code).To(Equal(http.StatusForbidden))
	})

	It("treats a non-numeric page as not found", func() {
		Expect(api.do(http.MethodGet, "/api/your-expenses/draft/x", owner, nil).Code).To(Equal(http.StatusNotFound))
	})
})
