package service

import (
	"context"
	"fmt"

	"expenses/internal/repository"

	"github.com/google/uuid"
)

type CurrencyResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Symbol   string    `json:"symbol"`
	Label    string    `json:"label"`
	TaxLabel string    `json:"tax_label"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ReferenceDataService interface {
	ListCurrencies(ctx context.Context) ([]CurrencyResponse, error)
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
}

type referenceDataService struct {
	repo repository.ReferenceDataRepository
}

func NewReferenceDataService(repo repository.ReferenceDataRepository) ReferenceDataService {
	return &referenceDataService{repo: repo}
}

func (s *referenceDataService) ListCurrencies(ctx context.Context) ([]CurrencyResponse, error) {
	currencies, err := s.repo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	res := make([]CurrencyResponse, 0, len(currencies))
	for _, c := range currencies {
		res = append(res, CurrencyResponse{
			ID:       c.ID,
			Name:     c.Name,
			Code:     c.Code,
			Symbol:   c.Symbol,
			Label:    c.String(),
			TaxLabel: c.TaxLabel(),
		})
	}
	return res, nil
}

func (s *referenceDataService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return res, nil
}
