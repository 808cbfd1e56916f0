package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
)

type ContactService struct {
	repo contact.Repository
}

func NewContactService(repo contact.Repository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) GetPaginated(ctx context.Context, params *contact.FindParams) ([]contact.Contact, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) Create(ctx context.Context, dto *contact.CreateDTO) (contact.Contact, error) {
	if dto == nil {
		return contact.Contact{}, errors.New("missing dto")
	}
	dto.Normalize()
	created, err := s.repo.Create(ctx, dto.ToEntity())
	if err != nil {
		return contact.Contact{}, err
	}
	return created, nil
}
