package service_test

import (
	"expenses/internal/model"
	"expenses/internal/repository"
	"expenses/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AccountService", func() {
	var (
		f              *fixture
		manager, owner *model.User
	)

	BeforeEach(func() {
		f = newFixture()
		manager = f.user("manager@example.com", nil)
		owner = f.user("owner@example.com", manager)
	})

	It("describes the account", func() {
		acc, err := f.accounts.GetAccount(f.ctx, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.Email).To(Equal(owner.Email))
		Expect(acc.DefaultCurrency).To(Equal("Pound Sterling"))
		Expect(acc.Manager).To(Equal(manager.FullName()))
		Expect(acc.IsManager).To(BeFalse())

		boss, err := f.accounts.GetAccount(f.ctx, manager.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(boss.IsManager).To(BeTrue())
	})

	It("sets and clears the substitute", func() {
		acc, err := f.accounts.UpdateAccount(f.ctx, manager.ID, service.UpdateAccountRequest{
			DefaultCurrency: "Euro",
			SubstituteEmail: owner.Email,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.DefaultCurrency).To(Equal("Euro"))
		Expect(acc.SubstituteEmail).To(Equal(owner.Email))

		acc, err = f.accounts.UpdateAccount(f.ctx, manager.ID, service.UpdateAccountRequest{DefaultCurrency: "Euro"})
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.SubstituteEmail).To(BeEmpty())
	})

	DescribeTable("validation",
		func(req service.UpdateAccountRequest, field, msg string) {
			_, err := f.accounts.UpdateAccount(f.ctx, manager.ID, req)
			Expect(validationFields(err)).To(HaveKeyWithValue(field, msg))
		},
		Entry("missing currency", service.UpdateAccountRequest{}, "default_currency", service.MsgRequired),
		Entry("unknown currency", service.UpdateAccountRequest{DefaultCurrency: "Groat"}, "default_currency", service.MsgChoiceInvalid),
		Entry("unknown substitute", service.UpdateAccountRequest{DefaultCurrency: "Euro", SubstituteEmail: "nobody@example.com"}, "substitute_email", service.MsgAccountInvalid),
		Entry("self as substitute", service.UpdateAccountRequest{DefaultCurrency: "Euro", SubstituteEmail: "manager@example.com"}, "substitute_email", service.MsgSubstituteSelf),
	)
})

var _ = Describe("UserService", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	It("issues a signed token on login", func() {
		u := f.user("login@example.com", nil)

		tok, err := f.users.Login(f.ctx, service.LoginUserRequest{Email: " LOGIN@example.com", Password: "password123"})
		Expect(err).NotTo(HaveOccurred())

		parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return testTokens.Secret, nil })
		Expect(err).NotTo(HaveOccurred())
		sub, err := parsed.Claims.GetSubject()
		Expect(err).NotTo(HaveOccurred())
		Expect(sub).To(Equal(u.ID.String()))
	})

	It("rejects bad credentials the same way", func() {
		f.user("login@example.com", nil)
		_, errPassword := f.users.Login(f.ctx, service.LoginUserRequest{Email: "login@example.com", Password: "wrong-password"})
		_, errEmail := f.users.Login(f.ctx, service.LoginUserRequest{Email: "nobody@example.com", Password: "password123"})
		Expect(errPassword).To(MatchError(service.ErrInvalidCredentials))
		Expect(errEmail).To(MatchError(service.ErrInvalidCredentials))
	})

	It("validates new users", func() {
		f.user("taken@example.com", nil)
		_, err := f.users.CreateUser(f.ctx, uuid.Nil, service.CreateUserRequest{
			Email:        "taken@example.com",
			Password:     "short",
			ManagerEmail: "ghost@example.com",
		})
		fields := validationFields(err)
		Expect(fields).To(HaveKeyWithValue("email", service.MsgEmailTaken))
		Expect(fields).To(HaveKeyWithValue("first_name", service.MsgRequired))
		Expect(fields).To(HaveKeyWithValue("password", service.MsgPasswordTooShort))
		Expect(fields).To(HaveKeyWithValue("manager_email", service.MsgAccountInvalid))
	})

	It("reassigns a manager and writes the system actor as no user", func() {
		boss := f.user("boss@example.com", nil)
		worker := f.user("worker@example.com", nil)

		email := boss.Email
		res, err := f.users.UpdateUser(f.ctx, boss.ID, worker.ID, service.UpdateUserRequest{ManagerEmail: &email})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ManagerID).To(HaveValue(Equal(boss.ID)))

		logs, _, err := f.audit.GetAuditLogs(f.ctx, repository.AuditFilter{Action: model.ActionCreateUser}, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).To(HaveLen(2))
		Expect(logs[0].UserEmail).To(Equal("System"))
	})

	It("deletes other users but not the actor", func() {
		admin := f.user("admin@example.com", nil)
		leaver := f.user("leaver@example.com", admin)
		ref := f.pending(leaver)
		_, err := f.claims.ReturnClaim(f.ctx, admin.ID, ref, service.ReturnClaimRequest{Comment: "no"})
		Expect(err).NotTo(HaveOccurred())

		Expect(f.users.DeleteUser(f.ctx, admin.ID, admin.ID)).To(MatchError(ContainSubstring(service.MsgDeleteSelf)))

		Expect(f.users.DeleteUser(f.ctx, admin.ID, leaver.ID)).To(Succeed())
		_, err = f.users.GetUserByID(f.ctx, leaver.ID)
		Expect(err).To(MatchError(service.ErrAccessDenied))
		_, err = f.claims.GetClaim(f.ctx, admin.ID, ref)
		Expect(err).To(MatchError(service.ErrAccessDenied))

		users, total, err := f.users.ListUsers(f.ctx, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeEquivalentTo(1))
		Expect(users[0].Email).To(Equal(admin.Email))
	})
})
