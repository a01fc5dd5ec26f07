package service

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/model"
	"expenses/internal/repository"
	"expenses/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Manager listing groups.
const (
	GroupYourTeam   = "your-team"
	GroupOtherTeams = "other-teams"
)

// ClaimPage is one page of a claim listing. When Page.NeedsRedirect is true
// Claims is empty and the caller should redirect to Page.RedirectTo.
type ClaimPage struct {
	View      string          `json:"view"`
	Claims    []ClaimSummary  `json:"claims"`
	Page      pagination.Page `json:"pagination"`
	IsManager bool            `json:"is_manager"`
}

type ListingService interface {
	// YourExpenses lists the actor's own claims in one status category, most
	// recently changed first.
	YourExpenses(ctx context.Context, actorID uuid.UUID, category string, page int) (*ClaimPage, error)
	// ManagerClaims lists pending claims the actor reviews, most recently
	// submitted first.
	ManagerClaims(ctx context.Context, actorID uuid.UUID, group string, page int) (*ClaimPage, error)
}

type listingService struct {
	claims repository.ClaimRepository
	users  repository.UserRepository
}

func NewListingService(claims repository.ClaimRepository, users repository.UserRepository) ListingService {
	return &listingService{claims: claims, users: users}
}

func (s *listingService) YourExpenses(ctx context.Context, actorID uuid.UUID, category string, page int) (*ClaimPage, error) {
	statuses, ok := model.StatusFilter(category)
	if !ok {
		return nil, ErrAccessDenied
	}
	q := repository.ClaimQuery{
		OwnerID:  &actorID,
		Statuses: statuses,
		Order:    repository.OrderByStatusUpdated,
	}
	return s.list(ctx, actorID, category, q, page)
}

func (s *listingService) ManagerClaims(ctx context.Context, actorID uuid.UUID, group string, page int) (*ClaimPage, error) {
	q := repository.ClaimQuery{
		ExcludeOwnerID: &actorID,
		Statuses:       []model.ClaimStatus{model.StatusPending},
		Order:          repository.OrderBySubmitted,
	}
	switch group {
	case GroupYourTeam:
		q.ManagerIDs = []uuid.UUID{actorID}
	case GroupOtherTeams:
		ids, err := s.users.SubstitutedManagerIDs(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("load substituted managers: %w", err)
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		q.ManagerIDs = ids
	default:
		return nil, ErrAccessDenied
	}
	return s.list(ctx, actorID, group, q, page)
}

func (s *listingService) list(ctx context.Context, actorID uuid.UUID, view string, q repository.ClaimQuery, page int) (*ClaimPage, error) {
	isManager, err := s.isManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	total, err := s.claims.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims: %w", err)
	}
	window := pagination.Window(total, page, pagination.ClaimPageSize)
	result := &ClaimPage{View: view, Claims: []ClaimSummary{}, Page: window, IsManager: isManager}
	if window.NeedsRedirect() || total == 0 {
		return result, nil
	}

	claims, err := s.claims.ListFrom(ctx, q, window.RangeMin, window.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claims: %w", err)
	}
	if len(claims) == 0 && page > 1 {
		// Rows went away between count and fetch.
		total, err = s.claims.Count(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to count claims: %w", err)
		}
		result.Page = pagination.Window(total, page, pagination.ClaimPageSize)
		if !result.Page.NeedsRedirect() {
			result.Page.RedirectTo = page - 1
		}
		return result, nil
	}
	for i := range claims {
		result.Claims = append(result.Claims, toClaimSummary(&claims[i]))
	}
	return result, nil
}

// isManager: the actor has direct reports, or stands in for someone who has.
func (s *listingService) isManager(ctx context.Context, actorID uuid.UUID) (bool, error) {
	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrAccessDenied
		}
		return false, fmt.Errorf("load actor: %w", err)
	}
	return isManager(ctx, s.users, actorID)
}

func isManager(ctx context.Context, users repository.UserRepository, actorID uuid.UUID) (bool, error) {
	direct, err := users.HasReports(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("check reports: %w", err)
	}
	if direct {
		return true, nil
	}
	substituted, err := users.SubstitutedManagerIDs(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("load substituted managers: %w", err)
	}
	viaSubstitute, err := users.HasReports(ctx, substituted...)
	if err != nil {
		return false, fmt.Errorf("check reports: %w", err)
	}
	return viaSubstitute, nil
}
