package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expenses/internal/model"
	"expenses/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpdateAccountRequest struct {
	DefaultCurrency string `json:"default_currency" example:"Pound Sterling"`
	// SubstituteEmail names who reviews the actor's team in their absence;
	// empty clears it.
	SubstituteEmail string `json:"substitute_email"`
}

type AccountResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	FullName        string    `json:"full_name"`
	IsAdmin         bool      `json:"is_admin"`
	IsManager       bool      `json:"is_manager"`
	DefaultCurrency string    `json:"default_currency"`
	Manager         string    `json:"manager"`
	SubstituteEmail string    `json:"substitute_email"`
}

type AccountService interface {
	GetAccount(ctx context.Context, actorID uuid.UUID) (*AccountResponse, error)
	UpdateAccount(ctx context.Context, actorID uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error)
}

type accountService struct {
	core
	users   repository.UserRepository
	refData repository.ReferenceDataRepository
}

func NewAccountService(
	tx repository.TransactionManager,
	users repository.UserRepository,
	refData repository.ReferenceDataRepository,
	audit repository.AuditRepository,
	opts ...Option,
) AccountService {
	return &accountService{core: newCore(tx, audit, opts), users: users, refData: refData}
}

func (s *accountService) GetAccount(ctx context.Context, actorID uuid.UUID) (*AccountResponse, error) {
	user, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.toAccountResponse(ctx, user)
}

func (s *accountService) UpdateAccount(ctx context.Context, actorID uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.loadActor(txCtx, actorID)
		if err != nil {
			return err
		}

		fields := fieldErrors{}
		var currency *model.Currency
		if name := strings.TrimSpace(req.DefaultCurrency); name == "" {
			fields.add("default_currency", MsgRequired)
		} else {
			currency, err = s.refData.GetCurrencyByName(txCtx, name)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields.add("default_currency", MsgChoiceInvalid)
			case err != nil:
				return fmt.Errorf("load currency: %w", err)
			}
		}

		var substituteID *uuid.UUID
		if email := strings.TrimSpace(req.SubstituteEmail); email != "" {
			substitute, err := s.users.GetByEmail(txCtx, email)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields.add("substitute_email", MsgAccountInvalid)
			case err != nil:
				return fmt.Errorf("load substitute: %w", err)
			case substitute.ID == user.ID:
				fields.add("substitute_email", MsgSubstituteSelf)
			default:
				substituteID = &substitute.ID
			}
		}
		if err := fields.err(); err != nil {
			return err
		}

		user.DefaultCurrencyID = &currency.ID
		user.SubstituteID = substituteID
		if err := s.users.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		details := map[string]interface{}{"default_currency": currency.Name, "substitute_email": strings.TrimSpace(req.SubstituteEmail)}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateAccount, user.Email, details)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, actorID)
}

func (s *accountService) loadActor(ctx context.Context, actorID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return user, nil
}

func (s *accountService) toAccountResponse(ctx context.Context, user *model.User) (*AccountResponse, error) {
	manager, err := isManager(ctx, s.users, user.ID)
	if err != nil {
		return nil, err
	}
	res := &AccountResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		IsAdmin:   user.IsAdmin,
		IsManager: manager,
	}
	if user.DefaultCurrency != nil {
		res.DefaultCurrency = user.DefaultCurrency.Name
	}
	if user.Manager != nil {
		res.Manager = user.Manager.FullName()
	}
	if user.Substitute != nil {
		res.SubstituteEmail = user.Substitute.Email
	}
	return res, nil
}
