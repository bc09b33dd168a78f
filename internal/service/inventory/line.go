package inventory

import (
	"context"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/service/security"
)

type LineService struct {
	repo  domain.LineRepository
	authz *security.Authorizer
}

func NewLineService(repo domain.LineRepository, authz *security.Authorizer) *LineService {
	return &LineService{repo: repo, authz: authz}
}

func (s *LineService) Create(ctx context.Context, p domain.Principal, req domain.CreateLineRequest) (*domain.ProductionLine, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrAccessDenied("credential carries no owner identity")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &domain.ProductionLine{
		ID:          domain.NewID(),
		OwnerID:     p.OwnerID,
		Name:        req.Name,
		Description: req.Description,
	})
}

func (s *LineService) Get(ctx context.Context, p domain.Principal, id string) (*domain.ProductionLine, error) {
	if err := s.authz.Allow(security.PolicyRead, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("production line not found")
	}
	return s.repo.GetByID(ctx, p.OwnerID, id)
}

func (s *LineService) List(ctx context.Context, p domain.Principal, page domain.PageRequest) ([]domain.ProductionLine, int64, error) {
	if err := s.authz.Allow(security.PolicyRead, p); err != nil {
		return nil, 0, err
	}
	if !p.HasOwner() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, p.OwnerID, page)
}

func (s *LineService) Update(ctx context.Context, p domain.Principal, id string, req domain.UpdateLineRequest) (*domain.ProductionLine, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("production line not found")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	expected := int64(-1)
	if req.IfVersion != nil {
		expected = *req.IfVersion
	}
	return s.repo.Update(ctx, &domain.ProductionLine{
		ID:          id,
		OwnerID:     p.OwnerID,
		Name:        req.Name,
		Description: req.Description,
	}, expected)
}

func (s *LineService) Delete(ctx context.Context, p domain.Principal, id string, ifVersion *int64) error {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return err
	}
	if !p.HasOwner() {
		return domain.ErrNotFound("production line not found")
	}

	expected := int64(-1)
	if ifVersion != nil {
		expected = *ifVersion
	}
	return s.repo.Delete(ctx, p.OwnerID, id, expected)
}

func (s *LineService) AddProduct(ctx context.Context, p domain.Principal, lineID, productID string, ifVersion *int64) (*domain.ProductionLine, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("production line not found")
	}

	expected := int64(-1)
	if ifVersion != nil {
		expected = *ifVersion
	}
	return s.repo.AddProduct(ctx, p.OwnerID, lineID, productID, expected)
}

func (s *LineService) RemoveProduct(ctx context.Context, p domain.Principal, lineID, productID string, ifVersion *int64) (*domain.ProductionLine, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("production line not found")
	}

	expected := int64(-1)
	if ifVersion != nil {
		expected = *ifVersion
	}
	return s.repo.RemoveProduct(ctx, p.OwnerID, lineID, productID, expected)
}
