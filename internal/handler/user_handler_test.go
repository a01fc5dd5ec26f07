package handler_test

import (
	"net/http"

	"expenses/internal/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User and account routes", func() {
	var (
		api          *testAPI
		admin, staff string
	)

	BeforeEach(func() {
		api = newTestAPI()
		admin = api.user("admin@example.com", "", true)
		staff = api.user("staff@example.com", "", false)
	})

	It("sets the access token cookie on login", func() {
		rec := api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "staff@example.com", "password": testPassword})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Set-Cookie")).To(ContainSubstring("access_token="))
	})

	It("keeps user administration to admins", func() {
		Expect(api.do(http.MethodGet, "/api/users", staff, nil).Code).To(Equal(http.StatusForbidden))
		Expect(api.do(http.MethodGet, "/api/audit-logs", staff, nil).Code).To(Equal(http.StatusForbidden))

		rec := api.do(http.MethodGet, "/api/users", admin, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(api.do(http.MethodGet, "/api/audit-logs?action=CREATE_USER", admin, nil).Code).To(Equal(http.StatusOK))
	})

	It("lets an admin create users", func() {
		rec := api.do(http.MethodPost, "/api/users", admin, service.CreateUserRequest{
			Email:     "new@example.com",
			FirstName: "New",
			Password:  "short",
		})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec).Fields).To(HaveKeyWithValue("password", service.MsgPasswordTooShort))

		rec = api.do(http.MethodPost, "/api/users", admin, service.CreateUserRequest{
			Email:     "new@example.com",
			FirstName: "New",
			Password:  testPassword,
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("updates account settings", func() {
		rec := api.do(http.MethodPut, "/api/account", staff, service.UpdateAccountRequest{
			DefaultCurrency: "Euro",
			SubstituteEmail: "staff@example.com",
		})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec).Fields).To(HaveKeyWithValue("substitute_email", service.MsgSubstituteSelf))

		rec = api.do(http.MethodPut, "/api/account", staff, service.UpdateAccountRequest{
			DefaultCurrency: "Euro",
			SubstituteEmail: "admin@example.com",
		})
		Expect(rec.Code).To(Equal(http.StatusOK))
		var account service.AccountResponse
		decodeData(rec, &account)
		Expect(account.SubstituteEmail).To(Equal("admin@example.com"))
	})

	It("lists reference data", func() {
		rec := api.do(http.MethodGet, "/api/currencies", staff, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var currencies []service.CurrencyResponse
		decodeData(rec, &currencies)
		Expect(currencies).NotTo(BeEmpty())
	})
})
