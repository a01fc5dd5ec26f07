package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reference prefixes and widths. A reference is the prefix followed by
// ReferenceDigits digits, e.g. C4821937.
const (
	ClaimRefPrefix   = "C"
	ReceiptRefPrefix = "R"
	ReferenceDigits  = 7
)

// FeedbackActionReturned is the action recorded when a claim goes back to its owner.
const FeedbackActionReturned = "Returned to claimant"

// ErrInvalidTransition is returned when a lifecycle operation is not allowed
// from the claim's current status.
var ErrInvalidTransition = errors.New("invalid claim status transition")

// Claim is an expense report made of receipts. Status and the timestamps that
// go with it only move through Submit, Approve and ReturnToClaimant.
type Claim struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner           *User       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE;" json:"owner,omitempty"`
	CurrencyID      uuid.UUID   `gorm:"type:uuid;not null" json:"currency_id"`
	Currency        *Currency   `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	Reference       string      `gorm:"type:varchar(8);uniqueIndex;not null" json:"reference"`
	Description     string      `gorm:"type:varchar(50);not null" json:"description"`
	Status          ClaimStatus `gorm:"type:varchar(1);not null;default:'1';index" json:"status"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	SubmittedAt     *time.Time  `gorm:"index" json:"submitted_at"`
	ApprovedAt      *time.Time  `json:"approved_at"`
	ApprovedByID    *uuid.UUID  `gorm:"type:uuid" json:"approved_by_id"`
	ApprovedBy      *User       `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL;" json:"-"`
	StatusUpdatedAt time.Time   `gorm:"not null;index" json:"status_updated_at"`
	Receipts        []Receipt   `gorm:"foreignKey:ClaimID;constraint:OnDelete:CASCADE;" json:"receipts,omitempty"`
	Feedback        []Feedback  `gorm:"foreignKey:ClaimID;constraint:OnDelete:CASCADE;" json:"feedback,omitempty"`
}

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// NewClaim builds a draft claim stamped with now. The reference is assigned by
// the caller from the reference generator.
func NewClaim(ownerID, currencyID uuid.UUID, reference, description string, now time.Time) *Claim {
	return &Claim{
		OwnerID:         ownerID,
		CurrencyID:      currencyID,
		Reference:       reference,
		Description:     description,
		Status:          StatusDraft,
		CreatedAt:       now,
		StatusUpdatedAt: now,
	}
}

// Submit moves a draft or returned claim to Pending.
func (c *Claim) Submit(now time.Time) error {
	if !c.Status.Editable() {
		return ErrInvalidTransition
	}
	c.Status = StatusPending
	c.SubmittedAt = &now
	c.StatusUpdatedAt = now
	return nil
}

// Approve accepts a pending claim on behalf of managerID.
func (c *Claim) Approve(managerID uuid.UUID, now time.Time) error {
	if c.Status != StatusPending {
		return ErrInvalidTransition
	}
	c.Status = StatusAccepted
	c.ApprovedAt = &now
	c.ApprovedByID = &managerID
	c.StatusUpdatedAt = now
	return nil
}

// ReturnToClaimant rejects a pending claim and returns the feedback entry that
// must be stored with it.
func (c *Claim) ReturnToClaimant(authorID uuid.UUID, comment string, now time.Time) (*Feedback, error) {
	if c.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	c.Status = StatusRejected
	c.StatusUpdatedAt = now
	return &Feedback{
		ClaimID:    c.ID,
		AuthorID:   &authorID,
		Comment:    comment,
		ActionDesc: FeedbackActionReturned,
		CreatedAt:  now,
	}, nil
}

// TotalAmount sums the receipt amounts.
func (c *Claim) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, r := range c.Receipts {
		total = total.Add(r.Amount)
	}
	return total
}

// TotalVAT sums the receipt VAT.
func (c *Claim) TotalVAT() decimal.Decimal {
	total := decimal.Zero
	for _, r := range c.Receipts {
		total = total.Add(r.VAT)
	}
	return total
}

// VATPercent is total VAT as a whole percentage of the total amount. ok is
// false when the total amount is zero.
func (c *Claim) VATPercent() (pct decimal.Decimal, ok bool) {
	return percentOf(c.TotalVAT(), c.TotalAmount())
}

// TotalVATAndPercent renders e.g. "25.00 (17%)". Without a percentage only the
// VAT total is shown.
func (c *Claim) TotalVATAndPercent() string {
	vat := c.TotalVAT().StringFixed(2)
	pct, ok := c.VATPercent()
	if !ok {
		return vat
	}
	return vat + " (" + pct.String() + "%)"
}

// HighestVATPercent is the largest VAT percentage of any single receipt.
func (c *Claim) HighestVATPercent() (decimal.Decimal, bool) {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, r := range c.Receipts {
		pct, ok := r.VATPercent()
		if !ok {
			continue
		}
		if !found || pct.GreaterThan(best) {
			best = pct
			found = true
		}
	}
	return best, found
}

// EarliestIncurred is the first receipt date, ok is false without receipts.
func (c *Claim) EarliestIncurred() (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for _, r := range c.Receipts {
		if !found || r.DateIncurred.Before(earliest) {
			earliest = r.DateIncurred
			found = true
		}
	}
	return earliest, found
}

// LatestIncurred is the last receipt date, ok is false without receipts.
func (c *Claim) LatestIncurred() (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, r := range c.Receipts {
		if !found || r.DateIncurred.After(latest) {
			latest = r.DateIncurred
			found = true
		}
	}
	return latest, found
}

// IncurredRange renders the span of receipt dates, collapsing shared parts:
// "2 Jan 2022", "2 - 5 Jan 2022", "28 Jan - 3 Feb 2022" or
// "28 Dec 2021 - 3 Jan 2022". It is empty when there are no receipts.
func (c *Claim) IncurredRange() string {
	first, ok := c.EarliestIncurred()
	if !ok {
		return ""
	}
	last, _ := c.LatestIncurred()

	const full = "2 Jan 2006"
	switch {
	case first.Year() != last.Year():
		return first.Format(full) + " - " + last.Format(full)
	case first.Month() != last.Month():
		return first.Format("2 Jan") + " - " + last.Format(full)
	case first.Day() != last.Day():
		return first.Format("2") + " - " + last.Format(full)
	default:
		return first.Format(full)
	}
}

func percentOf(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).Round(0), true
}
