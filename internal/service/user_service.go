package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expenses/internal/model"
	"expenses/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// DTOs for Request validation
type CreateUserRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FirstName       string `json:"first_name" binding:"required,max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	Password        string `json:"password" binding:"required"`
	IsAdmin         bool   `json:"is_admin"`
	ManagerEmail    string `json:"manager_email"`
	DefaultCurrency string `json:"default_currency"`
}

type UpdateUserRequest struct {
	FirstName    *string `json:"first_name" binding:"omitempty,max=150"`
	LastName     *string `json:"last_name" binding:"omitempty,max=150"`
	IsAdmin      *bool   `json:"is_admin"`
	ManagerEmail *string `json:"manager_email"` // "" clears the manager
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsAdmin      bool       `json:"is_admin"`
	ManagerID    *uuid.UUID `json:"manager_id"`
	SubstituteID *uuid.UUID `json:"substitute_id"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

// TokenIssuer signs login tokens.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

type userService struct {
	core
	repo    repository.UserRepository
	refData repository.ReferenceDataRepository
	tokens  TokenIssuer
}

// NewUserService returns a new instance of UserService
func NewUserService(
	tx repository.TransactionManager,
	repo repository.UserRepository,
	refData repository.ReferenceDataRepository,
	audit repository.AuditRepository,
	tokens TokenIssuer,
	opts ...Option,
) UserService {
	return &userService{core: newCore(tx, audit, opts), repo: repo, refData: refData, tokens: tokens}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsAdmin:      user.IsAdmin,
		ManagerID:    user.ManagerID,
		SubstituteID: user.SubstituteID,
		CreatedAt:    formatTime(user.CreatedAt),
		UpdatedAt:    formatTime(user.UpdatedAt),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	var user *model.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		fields := fieldErrors{}
		email := normalizeEmail(req.Email)
		if email == "" {
			fields.add("email", MsgRequired)
		} else if _, err := s.repo.GetByEmail(txCtx, email); err == nil {
			fields.add("email", MsgEmailTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
		if strings.TrimSpace(req.FirstName) == "" {
			fields.add("first_name", MsgRequired)
		}
		if len(req.Password) < minPasswordLen {
			fields.add("password", MsgPasswordTooShort)
		}

		managerID, err := s.lookupManager(txCtx, req.ManagerEmail, fields)
		if err != nil {
			return err
		}

		var currencyID *uuid.UUID
		if name := strings.TrimSpace(req.DefaultCurrency); name != "" {
			currency, err := s.refData.GetCurrencyByName(txCtx, name)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields.add("default_currency", MsgChoiceInvalid)
			case err != nil:
				return fmt.Errorf("load currency: %w", err)
			default:
				currencyID = &currency.ID
			}
		}
		if err := fields.err(); err != nil {
			return err
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = &model.User{
			Email:             email,
			FirstName:         strings.TrimSpace(req.FirstName),
			LastName:          strings.TrimSpace(req.LastName),
			PasswordHash:      string(hashedPassword),
			IsAdmin:           req.IsAdmin,
			ManagerID:         managerID,
			DefaultCurrencyID: currencyID,
		}
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		return s.writeAudit(txCtx, actorID, model.ActionCreateUser, user.Email, map[string]interface{}{
			"is_admin":      user.IsAdmin,
			"manager_email": normalizeEmail(req.ManagerEmail),
		})
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) lookupManager(ctx context.Context, email string, fields fieldErrors) (*uuid.UUID, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	manager, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fields.add("manager_email", MsgAccountInvalid)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load manager: %w", err)
	}
	return &manager.ID, nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock()
	expiresAt := now.Add(s.tokens.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"admin": user.IsAdmin,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.tokens.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: formatTime(expiresAt)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	var user *model.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repo.GetByID(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccessDenied
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		fields := fieldErrors{}
		if req.FirstName != nil {
			if name := strings.TrimSpace(*req.FirstName); name == "" {
				fields.add("first_name", MsgRequired)
			} else {
				user.FirstName = name
			}
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.IsAdmin != nil {
			user.IsAdmin = *req.IsAdmin
		}
		if req.ManagerEmail != nil {
			managerID, err := s.lookupManager(txCtx, *req.ManagerEmail, fields)
			if err != nil {
				return err
			}
			if managerID != nil && *managerID == user.ID {
				fields.add("manager_email", MsgAccountInvalid)
			}
			user.ManagerID = managerID
		}
		if err := fields.err(); err != nil {
			return err
		}

		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateUser, user.Email, map[string]interface{}{
			"is_admin":   user.IsAdmin,
			"manager_id": user.ManagerID,
		})
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return &ValidationError{Fields: map[string]string{"id": MsgDeleteSelf}}
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccessDenied
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteUser, user.Email, nil)
	})
}
