package service_test

import (
	"errors"
	"strings"

	"expenses/internal/model"
	"expenses/internal/notify"
	"expenses/internal/repository"
	"expenses/internal/service"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClaimService", func() {
	var (
		f                          *fixture
		manager, owner, substitute *model.User
		stranger                   *model.User
	)

	BeforeEach(func() {
		f = newFixture()
		manager = f.user("manager@example.com", nil)
		substitute = f.user("substitute@example.com", nil)
		owner = f.user("owner@example.com", manager)
		stranger = f.user("stranger@example.com", nil)
		f.setSubstitute(manager, substitute)
	})

	Describe("CreateClaim", func() {
		It("creates a draft in the owner's default currency", func() {
			c, err := f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Description: "  Conference  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Reference).To(MatchRegexp(`^C\d{7}$`))
			Expect(c.Description).To(Equal("Conference"))
			Expect(c.Status).To(Equal(string(model.StatusDraft)))
			Expect(c.Currency).To(ContainSubstring("Pound Sterling"))
			Expect(c.CanEdit).To(BeTrue())
			Expect(c.CanSubmit).To(BeFalse())
			Expect(c.Receipts).To(BeEmpty())
		})

		It("accepts an explicit currency", func() {
			c, err := f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Currency: "US Dollar", Description: "NYC"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.TaxLabel).To(Equal("Sales Tax"))
		})

		It("rejects a blank or long description and an unknown currency", func() {
			_, err := f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Description: "   "})
			Expect(validationFields(err)).To(HaveKeyWithValue("description", service.MsgRequired))

			_, err = f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Description: strings.Repeat("x", 51)})
			Expect(validationFields(err)).To(HaveKeyWithValue("description", "Ensure this value has at most 50 characters."))

			_, err = f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Currency: "Doubloon", Description: "x"})
			Expect(validationFields(err)).To(HaveKeyWithValue("currency", service.MsgChoiceInvalid))

			var count int64
			Expect(f.db.Model(&model.Claim{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("records an audit entry", func() {
			c, err := f.claims.CreateClaim(f.ctx, owner.ID, service.CreateClaimRequest{Description: "Audit me"})
			Expect(err).NotTo(HaveOccurred())

			logs, total, err := f.audit.GetAuditLogs(f.ctx, repository.AuditFilter{EntityID: c.Reference}, 1, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(1))
			Expect(logs[0].Action).To(Equal(model.ActionCreateClaim))
			Expect(logs[0].UserEmail).To(Equal(owner.Email))
		})
	})

	Describe("visibility", func() {
		var ref string

		BeforeEach(func() {
			ref = f.draft(owner, "Visible")
		})

		It("lets the owner, manager and substitute view", func() {
			for _, actor := range []*model.User{owner, manager, substitute} {
				_, err := f.claims.GetClaim(f.ctx, actor.ID, ref)
				Expect(err).NotTo(HaveOccurred(), actor.Email)
			}
		})

		It("denies a stranger exactly like an unknown reference", func() {
			_, errStranger := f.claims.GetClaim(f.ctx, stranger.ID, ref)
			_, errMissing := f.claims.GetClaim(f.ctx, owner.ID, "C0000000")
			Expect(errStranger).To(MatchError(service.ErrAccessDenied))
			Expect(errMissing).To(MatchError(service.ErrAccessDenied))
			Expect(errStranger.Error()).To(Equal(errMissing.Error()))
		})

		It("does not let a manager edit", func() {
			_, err := f.claims.EditClaim(f.ctx, manager.ID, ref, service.EditClaimRequest{Description: "Mine now"})
			Expect(err).To(MatchError(service.ErrAccessDenied))
		})
	})

	Describe("SubmitClaim", func() {
		It("refuses a claim without receipts", func() {
			ref := f.draft(owner, "Empty")
			_, err := f.claims.SubmitClaim(f.ctx, owner.ID, ref)
			Expect(validationFields(err)).To(HaveKeyWithValue("receipts", service.MsgClaimWithoutRecpts))

			c, err := f.claims.GetClaim(f.ctx, owner.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(string(model.StatusDraft)))
		})

		It("moves the claim to pending and notifies the reviewers", func() {
			ref := f.draft(owner, "Trip")
			f.addReceipt(owner, ref, "2022-01-02", "10.00", "2.00")

			c, err := f.claims.SubmitClaim(f.ctx, owner.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(string(model.StatusPending)))
			Expect(c.SubmittedAt).NotTo(BeNil())
			Expect(c.CanEdit).To(BeFalse())

			event := f.notifier.last()
			Expect(event.Action).To(Equal(notify.ActionSubmitted))
			Expect(event.Reference).To(Equal(ref))
			Expect(event.Recipients).To(ConsistOf(manager.ID, substitute.ID))
		})

		It("refuses a second submission as access denied", func() {
			ref := f.pending(owner)
			_, err := f.claims.SubmitClaim(f.ctx, owner.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			Expect(errors.Is(err, model.ErrInvalidTransition)).To(BeTrue())
		})

		It("does not let anyone else submit", func() {
			ref := f.draft(owner, "Trip")
			f.addReceipt(owner, ref, "2022-01-02", "10.00", "0")
			_, err := f.claims.SubmitClaim(f.ctx, manager.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			Expect(errors.Is(err, model.ErrInvalidTransition)).To(BeFalse())
		})
	})

	Describe("ApproveClaim", func() {
		var ref string

		BeforeEach(func() {
			ref = f.pending(owner)
		})

		It("lets the manager approve", func() {
			c, err := f.claims.ApproveClaim(f.ctx, manager.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(string(model.StatusAccepted)))
			Expect(c.ApprovedAt).NotTo(BeNil())
			Expect(c.ApprovedBy).To(Equal(manager.FullName()))
			Expect(c.CanApprove).To(BeFalse())

			event := f.notifier.last()
			Expect(event.Action).To(Equal(notify.ActionApproved))
			Expect(event.Recipients).To(ConsistOf(owner.ID))
		})

		It("lets the substitute approve", func() {
			c, err := f.claims.ApproveClaim(f.ctx, substitute.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ApprovedBy).To(Equal(substitute.FullName()))
		})

		It("denies the owner and strangers", func() {
			_, err := f.claims.ApproveClaim(f.ctx, owner.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			_, err = f.claims.ApproveClaim(f.ctx, stranger.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
		})

		It("denies an owner who stands in for their own manager", func() {
			f.setSubstitute(manager, owner)
			_, err := f.claims.ApproveClaim(f.ctx, owner.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			_, err = f.claims.ReturnClaim(f.ctx, owner.ID, ref, service.ReturnClaimRequest{Comment: "Looks fine"})
			Expect(err).To(MatchError(service.ErrAccessDenied))
		})

		It("denies approving twice", func() {
			_, err := f.claims.ApproveClaim(f.ctx, manager.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.claims.ApproveClaim(f.ctx, substitute.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			Expect(errors.Is(err, model.ErrInvalidTransition)).To(BeTrue())
		})

		It("denies approving a draft", func() {
			draft := f.draft(owner, "Not yet")
			_, err := f.claims.ApproveClaim(f.ctx, manager.ID, draft)
			Expect(err).To(MatchError(service.ErrAccessDenied))
		})
	})

	Describe("ReturnClaim", func() {
		var ref string

		BeforeEach(func() {
			ref = f.pending(owner)
		})

		It("requires a comment", func() {
			_, err := f.claims.ReturnClaim(f.ctx, manager.ID, ref, service.ReturnClaimRequest{Comment: " "})
			Expect(validationFields(err)).To(HaveKeyWithValue("comment", service.MsgRequired))

			_, err = f.claims.ReturnClaim(f.ctx, manager.ID, ref, service.ReturnClaimRequest{Comment: strings.Repeat("y", 301)})
			Expect(validationFields(err)).To(HaveKeyWithValue("comment", "Ensure this value has at most 300 characters."))
		})

		It("rejects the claim with feedback and lets the owner resubmit", func() {
			c, err := f.claims.ReturnClaim(f.ctx, manager.ID, ref, service.ReturnClaimRequest{Comment: "Missing receipt"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(string(model.StatusRejected)))
			Expect(c.Feedback).To(HaveLen(1))
			Expect(c.Feedback[0].Comment).To(Equal("Missing receipt"))
			Expect(c.Feedback[0].Author).To(Equal(manager.FullName()))
			Expect(f.notifier.last().Action).To(Equal(notify.ActionReturned))

			mine, err := f.claims.GetClaim(f.ctx, owner.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine.CanEdit).To(BeTrue())
			Expect(mine.CanSubmit).To(BeTrue())

			again, err := f.claims.SubmitClaim(f.ctx, owner.ID, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(string(model.StatusPending)))
			Expect(again.Feedback).To(HaveLen(1))
		})
	})

	Describe("EditClaim and DeleteClaim", func() {
		It("edits a draft description", func() {
			ref := f.draft(owner, "Old")
			c, err := f.claims.EditClaim(f.ctx, owner.ID, ref, service.EditClaimRequest{Description: "New"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Description).To(Equal("New"))
		})

		It("denies changes to a pending claim", func() {
			ref := f.pending(owner)
			_, err := f.claims.EditClaim(f.ctx, owner.ID, ref, service.EditClaimRequest{Description: "New"})
			Expect(err).To(MatchError(service.ErrAccessDenied))
			Expect(f.claims.DeleteClaim(f.ctx, owner.ID, ref)).To(MatchError(service.ErrAccessDenied))
		})

		It("deletes a draft with its receipts", func() {
			ref := f.draft(owner, "Gone")
			receiptRef := f.addReceipt(owner, ref, "2022-01-02", "5", "0")

			Expect(f.claims.DeleteClaim(f.ctx, owner.ID, ref)).To(Succeed())

			_, err := f.claims.GetClaim(f.ctx, owner.ID, ref)
			Expect(err).To(MatchError(service.ErrAccessDenied))
			_, err = f.receipts.GetReceipt(f.ctx, owner.ID, receiptRef)
			Expect(err).To(MatchError(service.ErrAccessDenied))
		})

		It("does not let a stranger delete", func() {
			ref := f.draft(owner, "Keep")
			Expect(f.claims.DeleteClaim(f.ctx, stranger.ID, ref)).To(MatchError(service.ErrAccessDenied))
		})
	})

	It("denies an unknown actor", func() {
		_, err := f.claims.CreateClaim(f.ctx, uuid.New(), service.CreateClaimRequest{Description: "x"})
		Expect(err).To(MatchError(service.ErrAccessDenied))
	})
})
