package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"expenses/internal/model"
	"expenses/internal/notify"
	"expenses/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxDescriptionLen = 50
	maxCommentLen     = 300
)

// --- Interface ---

type ClaimService interface {
	CreateClaim(ctx context.Context, actorID uuid.UUID, req CreateClaimRequest) (*ClaimDetail, error)
	GetClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error)
	EditClaim(ctx context.Context, actorID uuid.UUID, ref string, req EditClaimRequest) (*ClaimDetail, error)
	DeleteClaim(ctx context.Context, actorID uuid.UUID, ref string) error
	SubmitClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error)
	ApproveClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error)
	ReturnClaim(ctx context.Context, actorID uuid.UUID, ref string, req ReturnClaimRequest) (*ClaimDetail, error)
}

type claimService struct {
	core
	claims  repository.ClaimRepository
	users   repository.UserRepository
	refData repository.ReferenceDataRepository
}

func NewClaimService(
	tx repository.TransactionManager,
	claims repository.ClaimRepository,
	users repository.UserRepository,
	refData repository.ReferenceDataRepository,
	audit repository.AuditRepository,
	opts ...Option,
) ClaimService {
	return &claimService{
		core:    newCore(tx, audit, opts),
		claims:  claims,
		users:   users,
		refData: refData,
	}
}

// --- Implementation ---

func (s *claimService) CreateClaim(ctx context.Context, actorID uuid.UUID, req CreateClaimRequest) (*ClaimDetail, error) {
	var ref string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		actor, err := s.users.GetByID(txCtx, actorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccessDenied
		}
		if err != nil {
			return fmt.Errorf("load actor: %w", err)
		}

		fields := fieldErrors{}
		description := cleanText(req.Description)
		validateRequiredText(fields, "description", description, maxDescriptionLen)
		currency, err := s.resolveCurrency(txCtx, req.Currency, actor, fields)
		if err != nil {
			return err
		}
		if err := fields.err(); err != nil {
			return err
		}

		var claim *model.Claim
		err = s.withReference(txCtx, s.claims, model.ClaimRefPrefix, func(r string) error {
			claim = model.NewClaim(actor.ID, currency.ID, r, description, s.clock())
			return s.claims.Create(txCtx, claim)
		})
		if err != nil {
			return fmt.Errorf("failed to create claim: %w", err)
		}
		ref = claim.Reference

		return s.writeAudit(txCtx, actorID, model.ActionCreateClaim, claim.Reference, map[string]interface{}{
			"description": description,
			"currency":    currency.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetClaim(ctx, actorID, ref)
}

func (s *claimService) resolveCurrency(ctx context.Context, name string, actor *model.User, fields fieldErrors) (*model.Currency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if actor.DefaultCurrency == nil {
			fields.add("currency", MsgRequired)
			return nil, nil
		}
		return actor.DefaultCurrency, nil
	}
	currency, err := s.refData.GetCurrencyByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fields.add("currency", MsgChoiceInvalid)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load currency: %w", err)
	}
	return currency, nil
}

func (s *claimService) GetClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error) {
	claim, err := authorizeClaim(ctx, s.claims, actorID, ref, ruleView)
	if err != nil {
		return nil, err
	}
	return toClaimDetail(claim, Access{ActorID: actorID, Claim: claim}), nil
}

func (s *claimService) EditClaim(ctx context.Context, actorID uuid.UUID, ref string, req EditClaimRequest) (*ClaimDetail, error) {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, ref, ruleOwner)
		if err != nil {
			return err
		}

		fields := fieldErrors{}
		description := cleanText(req.Description)
		validateRequiredText(fields, "description", description, maxDescriptionLen)
		if err := fields.err(); err != nil {
			return err
		}

		previous := claim.Description
		claim.Description = description
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionEditClaim, claim.Reference, map[string]interface{}{
			"old_description": previous,
			"new_description": description,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetClaim(ctx, actorID, ref)
}

func (s *claimService) DeleteClaim(ctx context.Context, actorID uuid.UUID, ref string) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, ref, ruleOwner)
		if err != nil {
			return err
		}
		if err := s.claims.Delete(txCtx, claim); err != nil {
			return fmt.Errorf("failed to delete claim: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteClaim, claim.Reference, map[string]interface{}{
			"receipts": len(claim.Receipts),
			"total":    claim.TotalAmount().StringFixed(2),
		})
	})
}

func (s *claimService) SubmitClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error) {
	var event notify.Event
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, ref, ruleOwner)
		if err != nil {
			return err
		}
		if len(claim.Receipts) == 0 {
			return &ValidationError{Fields: map[string]string{"receipts": MsgClaimWithoutRecpts}}
		}

		now := s.clock()
		if err := claim.Submit(now); err != nil {
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("failed to submit claim: %w", err)
		}

		var recipients []uuid.UUID
		if owner := claim.Owner; owner != nil {
			var substitute *uuid.UUID
			if owner.Manager != nil {
				substitute = owner.Manager.SubstituteID
			}
			recipients = notify.Recipients(owner.ManagerID, substitute)
		}
		event = notify.Event{
			Action:     notify.ActionSubmitted,
			Reference:  claim.Reference,
			Status:     claim.Status.String(),
			ActorID:    actorID,
			Recipients: recipients,
			At:         now,
		}

		return s.writeAudit(txCtx, actorID, model.ActionSubmitClaim, claim.Reference, map[string]interface{}{
			"total": claim.TotalAmount().StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return s.GetClaim(ctx, actorID, ref)
}

func (s *claimService) ApproveClaim(ctx context.Context, actorID uuid.UUID, ref string) (*ClaimDetail, error) {
	var event notify.Event
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, ref, ruleReview)
		if err != nil {
			return err
		}

		now := s.clock()
		if err := claim.Approve(actorID, now); err != nil {
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("failed to approve claim: %w", err)
		}
		event = s.ownerEvent(notify.ActionApproved, claim, actorID, now)

		return s.writeAudit(txCtx, actorID, model.ActionApproveClaim, claim.Reference, map[string]interface{}{
			"owner": claim.OwnerID.String(),
			"total": claim.TotalAmount().StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return s.GetClaim(ctx, actorID, ref)
}

func (s *claimService) ReturnClaim(ctx context.Context, actorID uuid.UUID, ref string, req ReturnClaimRequest) (*ClaimDetail, error) {
	var event notify.Event
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := authorizeClaim(txCtx, s.claims, actorID, ref, ruleReview)
		if err != nil {
			return err
		}

		fields := fieldErrors{}
		comment := cleanText(req.Comment)
		validateRequiredText(fields, "comment", comment, maxCommentLen)
		if err := fields.err(); err != nil {
			return err
		}

		now := s.clock()
		feedback, err := claim.ReturnToClaimant(actorID, comment, now)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("failed to return claim: %w", err)
		}
		if err := s.claims.AddFeedback(txCtx, feedback); err != nil {
			return fmt.Errorf("failed to store feedback: %w", err)
		}
		event = s.ownerEvent(notify.ActionReturned, claim, actorID, now)

		return s.writeAudit(txCtx, actorID, model.ActionReturnClaim, claim.Reference, map[string]interface{}{
			"owner":   claim.OwnerID.String(),
			"comment": comment,
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return s.GetClaim(ctx, actorID, ref)
}

func (s *claimService) ownerEvent(action string, claim *model.Claim, actorID uuid.UUID, now time.Time) notify.Event {
	return notify.Event{
		Action:     action,
		Reference:  claim.Reference,
		Status:     claim.Status.String(),
		ActorID:    actorID,
		Recipients: notify.Recipients(&claim.OwnerID),
		At:         now,
	}
}

// cleanText trims surrounding whitespace the way form inputs are cleaned.
func cleanText(s string) string {
	return strings.TrimSpace(s)
}

func validateRequiredText(fields fieldErrors, field, value string, maxLen int) {
	switch {
	case value == "":
		fields.add(field, MsgRequired)
	case utf8.RuneCountInString(value) > maxLen:
		fields.add(field, fmt.Sprintf(MsgTooLong, maxLen))
	}
}
