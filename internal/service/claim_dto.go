package service

import (
	"time"

	"expenses/internal/model"
)

// --- DTOs ---

type CreateClaimRequest struct {
	// Currency is a currency name; empty means the actor's default currency.
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type EditClaimRequest struct {
	Description string `json:"description"`
}

type ReturnClaimRequest struct {
	Comment string `json:"comment"`
}

type ReceiptResponse struct {
	Reference    string `json:"reference"`
	ClaimRef     string `json:"claim_reference,omitempty"`
	DateIncurred string `json:"date_incurred"`
	Category     string `json:"category"`
	Amount       string `json:"amount"`
	VAT          string `json:"vat"`
	VATPercent   string `json:"vat_percent"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
}

type FeedbackResponse struct {
	Author     string `json:"author"`
	Comment    string `json:"comment"`
	ActionDesc string `json:"action_desc"`
	CreatedAt  string `json:"created_at"`
}

// ClaimSummary is one row of a claim listing.
type ClaimSummary struct {
	Reference          string  `json:"reference"`
	Description        string  `json:"description"`
	Status             string  `json:"status"`
	StatusName         string  `json:"status_name"`
	Owner              string  `json:"owner"`
	OwnerEmail         string  `json:"owner_email"`
	Currency           string  `json:"currency"`
	TotalAmount        string  `json:"total_amount"`
	TotalVATAndPercent string  `json:"total_vat"`
	IncurredRange      string  `json:"incurred_range"`
	ReceiptCount       int     `json:"receipt_count"`
	CreatedAt          string  `json:"created_at"`
	SubmittedAt        *string `json:"submitted_at"`
	StatusUpdatedAt    string  `json:"status_updated_at"`
}

// ClaimDetail is a single claim with its receipts, feedback and what the actor may do next.
type ClaimDetail struct {
	ClaimSummary
	Capabilities
	TaxLabel          string             `json:"tax_label"`
	HighestVATPercent string             `json:"highest_vat_percent"`
	ApprovedAt        *string            `json:"approved_at"`
	ApprovedBy        string             `json:"approved_by"`
	Receipts          []ReceiptResponse  `json:"receipts"`
	Feedback          []FeedbackResponse `json:"feedback"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toClaimSummary(c *model.Claim) ClaimSummary {
	s := ClaimSummary{
		Reference:          c.Reference,
		Description:        c.Description,
		Status:             string(c.Status),
		StatusName:         c.Status.String(),
		TotalAmount:        c.TotalAmount().StringFixed(2),
		TotalVATAndPercent: c.TotalVATAndPercent(),
		IncurredRange:      c.IncurredRange(),
		ReceiptCount:       len(c.Receipts),
		CreatedAt:          formatTime(c.CreatedAt),
		SubmittedAt:        formatTimePtr(c.SubmittedAt),
		StatusUpdatedAt:    formatTime(c.StatusUpdatedAt),
	}
	if c.Owner != nil {
		s.Owner = c.Owner.FullName()
		s.OwnerEmail = c.Owner.Email
	}
	if c.Currency != nil {
		s.Currency = c.Currency.String()
	}
	return s
}

func toClaimDetail(c *model.Claim, access Access) *ClaimDetail {
	d := &ClaimDetail{
		ClaimSummary: toClaimSummary(c),
		Capabilities: access.Capabilities(),
		TaxLabel:     "VAT",
		ApprovedAt:   formatTimePtr(c.ApprovedAt),
		Receipts:     make([]ReceiptResponse, 0, len(c.Receipts)),
		Feedback:     make([]FeedbackResponse, 0, len(c.Feedback)),
	}
	if c.Currency != nil {
		d.TaxLabel = c.Currency.TaxLabel()
	}
	if pct, ok := c.HighestVATPercent(); ok {
		d.HighestVATPercent = pct.String() + "%"
	}
	if c.ApprovedBy != nil {
		d.ApprovedBy = c.ApprovedBy.FullName()
	}
	for i := range c.Receipts {
		d.Receipts = append(d.Receipts, toReceiptResponse(&c.Receipts[i], ""))
	}
	for _, f := range c.Feedback {
		author := "Deleted user"
		if f.Author != nil {
			author = f.Author.FullName()
		}
		d.Feedback = append(d.Feedback, FeedbackResponse{
			Author:     author,
			Comment:    f.Comment,
			ActionDesc: f.ActionDesc,
			CreatedAt:  formatTime(f.CreatedAt),
		})
	}
	return d
}

func toReceiptResponse(r *model.Receipt, claimRef string) ReceiptResponse {
	res := ReceiptResponse{
		Reference:    r.Reference,
		ClaimRef:     claimRef,
		DateIncurred: r.DateIncurred.Format(dateLayout),
		Amount:       r.Amount.StringFixed(2),
		VAT:          r.VAT.StringFixed(2),
		Description:  r.Description,
		CreatedAt:    formatTime(r.CreatedAt),
	}
	if r.Category != nil {
		res.Category = r.Category.Name
	}
	if pct, ok := r.VATPercent(); ok {
		res.VATPercent = pct.String() + "%"
	}
	return res
}
