package repository_test

import (
	"context"

	"expenses/internal/model"
	"expenses/internal/repository"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo repository.UserRepository
		boss *model.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		repo = repository.NewUserRepository(db)
		boss = createUser(db, "boss@example.com", nil)
	})

	Describe("HasReports", func() {
		It("is false until someone reports to the user", func() {
			has, err := repo.HasReports(ctx, boss.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeFalse())

			createUser(db, "report@example.com", boss)
			has, err = repo.HasReports(ctx, boss.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeTrue())
		})

		It("is false for no ids", func() {
			has, err := repo.HasReports(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("clears manager and substitute links instead of cascading", func() {
			report := createUser(db, "report@example.com", boss)
			peer := createUser(db, "peer@example.com", nil)
			peer.SubstituteID = &boss.ID
			Expect(repo.Update(ctx, peer)).To(Succeed())
			claim := createClaim(db, report, model.StatusAccepted, boss.CreatedAt)
			claim.ApprovedByID = &boss.ID
			Expect(db.Omit("Owner", "Currency").Save(claim).Error).To(Succeed())

			Expect(repo.Delete(ctx, boss.ID)).To(Succeed())

			got, err := repo.GetByID(ctx, report.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ManagerID).To(BeNil())

			got, err = repo.GetByID(ctx, peer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.SubstituteID).To(BeNil())

			var reloaded model.Claim
			Expect(db.First(&reloaded, "id = ?", claim.ID).Error).To(Succeed())
			Expect(reloaded.ApprovedByID).To(BeNil())
		})

		It("removes the user's own claims", func() {
			claim := createClaim(db, boss, model.StatusDraft, boss.CreatedAt)
			Expect(repo.Delete(ctx, boss.ID)).To(Succeed())

			var count int64
			db.Model(&model.Claim{}).Where("id = ?", claim.ID).Count(&count)
			Expect(count).To(BeZero())
			_, err := repo.GetByID(ctx, boss.ID)
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
		})
	})

	Describe("Update", func() {
		It("writes a cleared substitute as NULL", func() {
			other := createUser(db, "other@example.com", nil)
			boss.SubstituteID = &other.ID
			Expect(repo.Update(ctx, boss)).To(Succeed())

			boss.SubstituteID = nil
			Expect(repo.Update(ctx, boss)).To(Succeed())

			got, err := repo.GetByID(ctx, boss.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.SubstituteID).To(BeNil())
			Expect(got.Substitute).To(BeNil())
		})
	})
})
