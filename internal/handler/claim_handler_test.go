package handler_test

import (
	"net/http"

	"expenses/internal/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Claim routes", func() {
	var (
		api                     *testAPI
		manager, owner, outside string
	)

	BeforeEach(func() {
		api = newTestAPI()
		manager = api.user("manager@example.com", "", false)
		owner = api.user("owner@example.com", "manager@example.com", false)
		outside = api.user("outside@example.com", "", false)
	})

	createClaim := func(description string) string {
		rec := api.do(http.MethodPost, "/api/claims", owner, map[string]string{"description": description})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		var claim service.ClaimDetail
		decodeData(rec, &claim)
		return claim.Reference
	}

	addReceipt := func(ref string) {
		rec := api.do(http.MethodPost, "/api/claims/"+ref+"/receipts", owner, service.ReceiptRequest{
			DateIncurred: "2022-03-01",
			Category:     "Hotel",
			Amount:       "120.00",
			VAT:          "20.00",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
	}

	It("answers health checks without a token", func() {
		rec := api.do(http.MethodGet, "/health", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("requires a token", func() {
		rec := api.do(http.MethodGet, "/api/claims", "", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))

		rec = api.do(http.MethodGet, "/api/claims", "not-a-jwt", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a wrong password with 401", func() {
		rec := api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "owner@example.com", "password": "nope-nope"})
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 403 alike for hidden and unknown claims", func() {
		ref := createClaim("Private")

		hidden := api.do(http.MethodGet, "/api/claims/"+ref, outside, nil)
		missing := api.do(http.MethodGet, "/api/claims/C0000000", outside, nil)

		Expect(hidden.Code).To(Equal(http.StatusForbidden))
		Expect(missing.Code).To(Equal(http.StatusForbidden))
		Expect(hidden.Body.String()).To(Equal(missing.Body.String()))
		Expect(decode(hidden).Error).To(Equal("access denied"))
	})

	It("returns field messages on validation failure", func() {
		rec := api.do(http.MethodPost, "/api/claims", owner, map[string]string{"description": ""})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec).Fields).To(HaveKeyWithValue("description", service.MsgRequired))
	})

	It("runs a claim from draft to accepted", func() {
		ref := createClaim("Offsite")

		rec := api.do(http.MethodPost, "/api/claims/"+ref+"/submit", owner, nil)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec).Fields).To(HaveKey("receipts"))

		addReceipt(ref)
		rec = api.do(http.MethodPost, "/api/claims/"+ref+"/submit", owner, nil)
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

		rec = api.do(http.MethodPost, "/api/claims/"+ref+"/approve", outside, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		rec = api.do(http.MethodPost, "/api/claims/"+ref+"/approve", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var claim service.ClaimDetail
		decodeData(rec, &claim)
		Expect(claim.StatusName).To(Equal("Accepted"))
		Expect(claim.TotalAmount).To(Equal("120.00"))
	})

	It("returns a claim with a comment", func() {
		ref := createClaim("Offsite")
		addReceipt(ref)
		Expect(api.do(http.MethodPost, "/api/claims/"+ref+"/submit", owner, nil).Code).To(Equal(http.StatusOK))

		rec := api.do(http.MethodPost, "/api/claims/"+ref+"/return", manager, map[string]string{"comment": "Itemise please"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		var claim service.ClaimDetail
		decodeData(rec, &claim)
		Expect(claim.StatusName).To(Equal("Rejected"))
		Expect(claim.Feedback).To(HaveLen(1))
	})

	It("serves receipts to viewers", func() {
		ref := createClaim("Receipts")
		addReceipt(ref)

		rec := api.do(http.MethodGet, "/api/claims/"+ref, manager, nil)
		var claim service.ClaimDetail
		decodeData(rec, &claim)
		Expect(claim.Receipts).To(HaveLen(1))
		receiptRef := claim.Receipts[0].Reference

		Expect(api.do(http.MethodGet, "/api/receipts/"+receiptRef, manager, nil).Code).To(Equal(http.StatusOK))
		Expect(api.do(http.MethodDelete, "/api/receipts/"+receiptRef, manager, nil).Code).To(Equal(http.StatusForbidden))
		Expect(api.do(http.MethodDelete, "/api/receipts/"+receiptRef, owner, nil).Code).To(Equal(http.StatusOK))
	})

	It("exports a workbook", func() {
		ref := createClaim("Export")
		addReceipt(ref)

		rec := api.do(http.MethodGet, "/api/claims/"+ref+"/export.xlsx", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(ref + ".xlsx"))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})
})
