package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"expenses/internal/model"
	"expenses/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// MsgNumberInvalid is shown when an amount or VAT does not parse.
const MsgNumberInvalid = "Enter a number."

// ReceiptRequest is the receipt form. Amounts are decimal strings such as "12.50".
type ReceiptRequest struct {
	DateIncurred string `json:"date_incurred" example:"2022-01-05"`
	Category     string `json:"category" example:"Meal"`
	Amount       string `json:"amount" example:"12.50"`
	VAT          string `json:"vat" example:"2.08"`
	Description  string `json:"description"`
}

type ReceiptService interface {
	CreateReceipt(ctx context.Context, actorID uuid.UUID, claimRef string, req ReceiptRequest) (*ReceiptResponse, error)
	GetReceipt(ctx context.Context, actorID uuid.UUID, ref string) (*ReceiptResponse, error)
	EditReceipt(ctx context.Context, actorID uuid.UUID, ref string, req ReceiptRequest) (*ReceiptResponse, error)
	DeleteReceipt(ctx context.Context, actorID uuid.UUID, ref string) error
}

type receiptService struct {
	core
	claims   repository.ClaimRepository
	receipts repository.ReceiptRepository
	refData  repository.ReferenceDataRepository
}

func NewReceiptService(
	tx repository.TransactionManager,
	claims repository.ClaimRepository,
	receipts repository.ReceiptRepository,
	refData repository.ReferenceDataRepository,
	audit repository.AuditRepository,
	opts ...Option,
) ReceiptService {
	return &receiptService{
		core:     newCore(tx, audit, opts),
		claims:   claims,
		receipts: receipts,
		refData:  refData,
	}
}

// receiptFields is a validated ReceiptRequest.
type receiptFields struct {
	dateIncurred time.Time
	category     *model.Category
	amount       decimal.Decimal
	vat          decimal.Decimal
	description  string
}

func (f receiptFields) apply(r *model.Receipt) {
	r.DateIncurred = f.dateIncurred
	r.CategoryID = f.category.ID
	r.Category = f.category
	r.Amount = f.amount
	r.VAT = f.vat
	r.Description = f.description
}

func (f receiptFields) audit() map[string]interface{} {
	return map[string]interface{}{
		"date_incurred": f.dateIncurred.Format(dateLayout),
		"category":      f.category.Name,
		"amount":        f.amount.StringFixed(2),
		"vat":           f.vat.StringFixed(2),
		"description":   f.description,
	}
}

func (s *receiptService) CreateReceipt(ctx context.Context, actorID uuid.UUID, claimRef string, req ReceiptRequest) (*ReceiptResponse, error) {
	var receipt model.Receipt
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, claimRef, ruleOwner)
		if err != nil {
			return err
		}
		fields, err := s.validate(txCtx, req)
		if err != nil {
			return err
		}

		err = s.withReference(txCtx, s.receipts, model.ReceiptRefPrefix, func(ref string) error {
			receipt = model.Receipt{
				ClaimID:   claim.ID,
				Reference: ref,
				CreatedAt: s.clock(),
			}
			fields.apply(&receipt)
			return s.receipts.Create(txCtx, &receipt)
		})
		if err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}

		details := fields.audit()
		details["claim"] = claim.Reference
		return s.writeAudit(txCtx, actorID, model.ActionCreateReceipt, receipt.Reference, details)
	})
	if err != nil {
		return nil, err
	}
	res := toReceiptResponse(&receipt, claimRef)
	return &res, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, actorID uuid.UUID, ref string) (*ReceiptResponse, error) {
	receipt, claim, err := s.authorizeReceipt(ctx, actorID, ref, ruleView)
	if err != nil {
		return nil, err
	}
	res := toReceiptResponse(receipt, claim.Reference)
	return &res, nil
}

func (s *receiptService) EditReceipt(ctx context.Context, actorID uuid.UUID, ref string, req ReceiptRequest) (*ReceiptResponse, error) {
	var (
		receipt *model.Receipt
		claim   *model.Claim
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		receipt, claim, err = s.authorizeReceipt(txCtx, actorID, ref, ruleOwner)
		if err != nil {
			return err
		}
		fields, err := s.validate(txCtx, req)
		if err != nil {
			return err
		}

		fields.apply(receipt)
		if err := s.receipts.Save(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to update receipt: %w", err)
		}
		details := fields.audit()
		details["claim"] = claim.Reference
		return s.writeAudit(txCtx, actorID, model.ActionEditReceipt, receipt.Reference, details)
	})
	if err != nil {
		return nil, err
	}
	res := toReceiptResponse(receipt, claim.Reference)
	return &res, nil
}

func (s *receiptService) DeleteReceipt(ctx context.Context, actorID uuid.UUID, ref string) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		receipt, claim, err := s.authorizeReceipt(txCtx, actorID, ref, ruleOwner)
		if err != nil {
			return err
		}
		if err := s.receipts.Delete(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to delete receipt: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteReceipt, receipt.Reference, map[string]interface{}{
			"claim":  claim.Reference,
			"amount": receipt.Amount.StringFixed(2),
		})
	})
}

// authorizeReceipt resolves the receipt and applies rule to its parent claim.
func (s *receiptService) authorizeReceipt(ctx context.Context, actorID uuid.UUID, ref string, rule claimRule) (*model.Receipt, *model.Claim, error) {
	receipt, err := s.receipts.FindByReference(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrAccessDenied
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load receipt %s: %w", ref, err)
	}

	claim, err := s.claims.FindByID(ctx, receipt.ClaimID)
	if err != nil {
		return nil, nil, fmt.Errorf("load claim of receipt %s: %w", ref, err)
	}
	if err := checkClaim(actorID, claim, rule); err != nil {
		return nil, nil, err
	}
	return receipt, claim, nil
}

func (s *receiptService) validate(ctx context.Context, req ReceiptRequest) (receiptFields, error) {
	fields := fieldErrors{}
	var out receiptFields

	if date := strings.TrimSpace(req.DateIncurred); date == "" {
		fields.add("date_incurred", MsgRequired)
	} else if d, err := time.Parse(dateLayout, date); err != nil {
		fields.add("date_incurred", MsgDateInvalid)
	} else {
		out.dateIncurred = d
	}

	if name := strings.TrimSpace(req.Category); name == "" {
		fields.add("category", MsgRequired)
	} else {
		category, err := s.refData.GetCategoryByName(ctx, name)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			fields.add("category", MsgChoiceInvalid)
		case err != nil:
			return out, fmt.Errorf("load category: %w", err)
		default:
			out.category = category
		}
	}

	amount, amountOK := parseMoney(fields, "amount", req.Amount)
	if amountOK && !amount.IsPositive() {
		fields.add("amount", MsgAmountPositive)
		amountOK = false
	}
	amountOK = amountOK && checkMoney(fields, "amount", amount, MsgAmountInvalid)

	vat, vatOK := parseMoney(fields, "vat", req.VAT)
	if vatOK && vat.IsNegative() {
		fields.add("vat", MsgVATNonNegative)
		vatOK = false
	}
	vatOK = vatOK && checkMoney(fields, "vat", vat, MsgVATInvalid)

	if amountOK && vatOK && vat.GreaterThanOrEqual(amount) {
		fields.add("vat", MsgVATBelowAmount)
	}
	out.amount, out.vat = amount, vat

	out.description = strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(out.description) > maxDescriptionLen {
		fields.add("description", fmt.Sprintf(MsgTooLong, maxDescriptionLen))
	}
	if out.description == "" {
		out.description = model.DefaultReceiptDescription
	}

	return out, fields.err()
}

// parseMoney parses a decimal field. Range and precision are checked by the
// caller so each field can word its own message.
func parseMoney(fields fieldErrors, field, raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fields.add(field, MsgRequired)
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields.add(field, MsgNumberInvalid)
		return decimal.Zero, false
	}
	return d, true
}

// moneyLimit is the first value a decimal(12,2) column cannot hold.
var moneyLimit = decimal.New(1, 10)

// checkMoney allows at most two significant decimal places, so "1.230" passes,
// and rejects values the amount columns cannot store.
func checkMoney(fields fieldErrors, field string, d decimal.Decimal, msg string) bool {
	if !d.Equal(d.Round(2)) || d.Abs().GreaterThanOrEqual(moneyLimit) {
		fields.add(field, msg)
		return false
	}
	return true
}
