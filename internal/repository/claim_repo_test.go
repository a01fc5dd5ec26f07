package repository_test

import (
	"context"
	"time"

	"expenses/internal/model"
	"expenses/internal/repository"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ = Describe("ClaimRepository", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		repo    repository.ClaimRepository
		manager *model.User
		alice   *model.User
		base    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		repo = repository.NewClaimRepository(db)
		manager = createUser(db, "manager@example.com", nil)
		alice = createUser(db, "alice@example.com", manager)
		base = time.Date(2022, 1, 10, 9, 0, 0, 0, time.UTC)
	})

	Describe("Exists", func() {
		It("reports stored references only", func() {
			c := createClaim(db, alice, model.StatusDraft, base)

			found, err := repo.Exists(ctx, c.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())

			found, err = repo.Exists(ctx, "C9999999")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("FindByReference", func() {
		It("loads the owner's manager and the receipts", func() {
			c := createClaim(db, alice, model.StatusDraft, base)
			var meal model.Category
			Expect(db.First(&meal, "name = ?", "Meal").Error).To(Succeed())
			Expect(db.Create(&model.Receipt{
				ClaimID: c.ID, Reference: "R0000001", CreatedAt: base, DateIncurred: base,
				CategoryID: meal.ID, Amount: decimal.RequireFromString("10.00"), VAT: decimal.Zero, Description: "lunch",
			}).Error).To(Succeed())

			got, err := repo.FindByReference(ctx, c.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Owner.Manager).NotTo(BeNil())
			Expect(got.Owner.Manager.ID).To(Equal(manager.ID))
			Expect(got.Receipts).To(HaveLen(1))
			Expect(got.Receipts[0].Category.Name).To(Equal("Meal"))
			Expect(got.Currency.Code).To(Equal("GBP"))
		})

		It("returns gorm.ErrRecordNotFound for unknown references", func() {
			_, err := repo.FindByReference(ctx, "C0000000")
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes receipts and feedback with the claim", func() {
			c := createClaim(db, alice, model.StatusRejected, base)
			var taxi model.Category
			Expect(db.First(&taxi, "name = ?", "Taxi").Error).To(Succeed())
			Expect(db.Create(&model.Receipt{
				ClaimID: c.ID, Reference: "R0000002", CreatedAt: base, DateIncurred: base,
				CategoryID: taxi.ID, Amount: decimal.RequireFromString("5.00"), VAT: decimal.Zero, Description: "None",
			}).Error).To(Succeed())
			Expect(repo.AddFeedback(ctx, &model.Feedback{
				ClaimID: c.ID, AuthorID: &manager.ID, Comment: "no", ActionDesc: model.FeedbackActionReturned, CreatedAt: base,
			})).To(Succeed())

			Expect(repo.Delete(ctx, c)).To(Succeed())

			var receipts, feedback int64
			db.Model(&model.Receipt{}).Where("claim_id = ?", c.ID).Count(&receipts)
			db.Model(&model.Feedback{}).Where("claim_id = ?", c.ID).Count(&feedback)
			Expect(receipts).To(BeZero())
			Expect(feedback).To(BeZero())
			found, err := repo.Exists(ctx, c.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("ListFrom", func() {
		collect := func(q repository.ClaimQuery, total, size int) []string {
			var refs []string
			for rangeMin := 1; rangeMin <= total; rangeMin += size {
				page, err := repo.ListFrom(ctx, q, rangeMin, size)
				Expect(err).NotTo(HaveOccurred())
				for _, c := range page {
					refs = append(refs, c.Reference)
				}
			}
			return refs
		}

		When("listing an owner's claims", func() {
			var created []*model.Claim

			BeforeEach(func() {
				created = nil
				for i := 0; i < 20; i++ {
					created = append(created, createClaim(db, alice, model.StatusDraft, base.Add(time.Duration(i)*time.Minute)))
				}
			})

			It("returns the newest first from the boundary row", func() {
				q := repository.ClaimQuery{OwnerID: &alice.ID, Order: repository.OrderByStatusUpdated}
				page, err := repo.ListFrom(ctx, q, 16, 15)
				Expect(err).NotTo(HaveOccurred())
				Expect(page).To(HaveLen(5))
				Expect(page[0].Reference).To(Equal(created[4].Reference))
				Expect(page[4].Reference).To(Equal(created[0].Reference))
			})

			It("counts the matching claims", func() {
				total, err := repo.Count(ctx, repository.ClaimQuery{OwnerID: &alice.ID, Order: repository.OrderByStatusUpdated})
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeEquivalentTo(20))
			})

			It("returns nothing past the end", func() {
				q := repository.ClaimQuery{OwnerID: &alice.ID, Order: repository.OrderByStatusUpdated}
				page, err := repo.ListFrom(ctx, q, 21, 15)
				Expect(err).NotTo(HaveOccurred())
				Expect(page).To(BeEmpty())
			})

			It("filters by status", func() {
				createClaim(db, alice, model.StatusSent, base.Add(time.Hour))
				createClaim(db, alice, model.StatusAccepted, base.Add(2*time.Hour))
				codes, _ := model.StatusFilter("accepted")
				q := repository.ClaimQuery{OwnerID: &alice.ID, Statuses: codes, Order: repository.OrderByStatusUpdated}
				total, err := repo.Count(ctx, q)
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeEquivalentTo(2))
			})
		})

		When("timestamps tie", func() {
			It("pages through every claim exactly once", func() {
				for i := 0; i < 7; i++ {
					createClaim(db, alice, model.StatusDraft, base)
				}
				q := repository.ClaimQuery{OwnerID: &alice.ID, Order: repository.OrderByStatusUpdated}
				refs := collect(q, 7, 3)
				Expect(refs).To(HaveLen(7))
				seen := map[string]bool{}
				for _, r := range refs {
					Expect(seen).NotTo(HaveKey(r))
					seen[r] = true
				}
			})
		})

		When("listing for managers", func() {
			var sub *model.User

			BeforeEach(func() {
				sub = createUser(db, "sub@example.com", nil)
				manager.SubstituteID = &sub.ID
				Expect(db.Save(manager).Error).To(Succeed())

				createClaim(db, alice, model.StatusPending, base)
				createClaim(db, alice, model.StatusPending, base.Add(time.Minute))
				createClaim(db, alice, model.StatusDraft, base.Add(2*time.Minute))
				createClaim(db, alice, model.StatusAccepted, base.Add(3*time.Minute))
			})

			It("selects pending claims of direct reports ordered by submission", func() {
				q := repository.ClaimQuery{
					ManagerIDs: []uuid.UUID{manager.ID},
					Statuses:   []model.ClaimStatus{model.StatusPending},
					Order:      repository.OrderBySubmitted,
				}
				page, err := repo.ListFrom(ctx, q, 1, 15)
				Expect(err).NotTo(HaveOccurred())
				Expect(page).To(HaveLen(2))
				Expect(page[0].SubmittedAt.After(*page[1].SubmittedAt)).To(BeTrue())
			})

			It("selects the same claims for the substitute through the substituted managers", func() {
				ids, err := repository.NewUserRepository(db).SubstitutedManagerIDs(ctx, sub.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(ids).To(ConsistOf(manager.ID))

				total, err := repo.Count(ctx, repository.ClaimQuery{
					ManagerIDs: ids,
					Statuses:   []model.ClaimStatus{model.StatusPending},
					Order:      repository.OrderBySubmitted,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeEquivalentTo(2))
			})

			It("matches nothing for an empty manager set", func() {
				q := repository.ClaimQuery{ManagerIDs: []uuid.UUID{}, Order: repository.OrderBySubmitted}
				total, err := repo.Count(ctx, q)
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeZero())
				page, err := repo.ListFrom(ctx, q, 1, 15)
				Expect(err).NotTo(HaveOccurred())
				Expect(page).To(BeEmpty())
			})
		})
	})
})
