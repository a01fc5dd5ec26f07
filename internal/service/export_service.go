package service

import (
	"bytes"
	"context"
	"fmt"

	"expenses/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Receipts"

// ClaimExport is a rendered workbook ready to stream.
type ClaimExport struct {
	Filename string
	Content  []byte
}

type ExportService interface {
	// ExportClaim renders the claim's receipts as XLSX for anyone who may view it.
	ExportClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimExport, error)
}

type exportService struct {
	claims repository.ClaimRepository
}

func NewExportService(claims repository.ClaimRepository) ExportService {
	return &exportService{claims: claims}
}

func (s *exportService) ExportClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimExport, error) {
	claim, err := authorizeClaim(ctx, s.claims, actorID, ref, ruleView)
	if err != nil {
		return nil, err
	}

	taxLabel := "VAT"
	if claim.Currency != nil {
		taxLabel = claim.Currency.TaxLabel()
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []interface{}{"Reference", "Date incurred", "Category", "Description", "Amount", taxLabel, taxLabel + " %"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range claim.Receipts {
		r := toReceiptResponse(&claim.Receipts[i], claim.Reference)
		amount, _ := claim.Receipts[i].Amount.Float64()
		vat, _ := claim.Receipts[i].VAT.Float64()
		row := []interface{}{r.Reference, r.DateIncurred, r.Category, r.Description, amount, vat, r.VATPercent}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write receipt %s: %w", r.Reference, err)
		}
	}

	total, _ := claim.TotalAmount().Float64()
	totalVAT, _ := claim.TotalVAT().Float64()
	pct := ""
	if p, ok := claim.VATPercent(); ok {
		pct = p.String() + "%"
	}
	totals := []interface{}{"Total", claim.IncurredRange(), "", claim.Description, total, totalVAT, pct}
	cell, _ := excelize.CoordinatesToCellName(1, len(claim.Receipts)+2)
	if err := f.SetSheetRow(exportSheet, cell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	numFmt := "#,##0.00"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(6, len(claim.Receipts)+2)
	if err := f.SetCellStyle(exportSheet, "E2", last, style); err != nil {
		return nil, fmt.Errorf("style amounts: %w", err)
	}
	_ = f.SetColWidth(exportSheet, "A", "C", 14)
	_ = f.SetColWidth(exportSheet, "D", "D", 30)
	_ = f.SetColWidth(exportSheet, "E", "G", 12)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return &ClaimExport{Filename: claim.Reference + ".xlsx", Content: buf.Bytes()}, nil
}
