package service_test

import (
	"bytes"

	"expenses/internal/model"
	"expenses/internal/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("ExportService", func() {
	var (
		f              *fixture
		manager, owner *model.User
		stranger       *model.User
		ref            string
	)

	BeforeEach(func() {
		f = newFixture()
		manager = f.user("manager@example.com", nil)
		owner = f.user("owner@example.com", manager)
		stranger = f.user("stranger@example.com", nil)
		ref = f.draft(owner, "Export")
		f.addReceipt(owner, ref, "2022-01-02", "10.00", "2.00")
		f.addReceipt(owner, ref, "2022-01-04", "5.50", "0")
	})

	It("renders receipts and a totals row", func() {
		out, err := f.export.ExportClaim(f.ctx, manager.ID, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Filename).To(Equal(ref + ".xlsx"))

		book, err := excelize.OpenReader(bytes.NewReader(out.Content))
		Expect(err).NotTo(HaveOccurred())
		defer book.Close()
		Expect(book.GetSheetList()).To(Equal([]string{"Receipts"}))

		rows, err := book.GetRows("Receipts")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(4))
		Expect(rows[0][0]).To(Equal("Reference"))
		Expect(rows[0][5]).To(Equal("VAT"))
		Expect(rows[1][1]).To(Equal("2022-01-02"))
		Expect(rows[2][3]).To(Equal(model.DefaultReceiptDescription))
		Expect(rows[3][0]).To(Equal("Total"))

		total, err := book.GetCellValue("Receipts", "E4", excelize.Options{RawCellValue: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal("15.5"))
	})

	It("denies actors who cannot view the claim", func() {
		_, err := f.export.ExportClaim(f.ctx, stranger.ID, ref)
		Expect(err).To(MatchError(service.ErrAccessDenied))
	})
})
