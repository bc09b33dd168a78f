// Package inventory implements the product and production-line services.
// Every operation runs the same sequence: named policy check, then
// owner-scoped storage access, so a denial can never leak whether a resource
// exists and a cross-tenant id reads exactly like an absent one.
package inventory

import (
	"context"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/service/security"
)

type ProductService struct {
	repo  domain.ProductRepository
	authz *security.Authorizer
}

func NewProductService(repo domain.ProductRepository, authz *security.Authorizer) *ProductService {
	return &ProductService{repo: repo, authz: authz}
}

func (s *ProductService) Create(ctx context.Context, p domain.Principal, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrAccessDenied("credential carries no owner identity")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &domain.Product{
		ID:       domain.NewID(),
		OwnerID:  p.OwnerID,
		Name:     req.Name,
		SKU:      req.SKU,
		Quantity: req.Quantity,
	})
}

func (s *ProductService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Product, error) {
	if err := s.authz.Allow(security.PolicyRead, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("product not found")
	}
	return s.repo.GetByID(ctx, p.OwnerID, id)
}

func (s *ProductService) List(ctx context.Context, p domain.Principal, page domain.PageRequest) ([]domain.Product, int64, error) {
	if err := s.authz.Allow(security.PolicyRead, p); err != nil {
		return nil, 0, err
	}
	if !p.HasOwner() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, p.OwnerID, page)
}

func (s *ProductService) Update(ctx context.Context, p domain.Principal, id string, req domain.UpdateProductRequest) (*domain.Product, error) {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return nil, err
	}
	if !p.HasOwner() {
		return nil, domain.ErrNotFound("product not found")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// nil IfVersion means an unconditional last-writer-wins update.
	expected := int64(-1)
	if req.IfVersion != nil {
		expected = *req.IfVersion
	}
	return s.repo.Update(ctx, &domain.Product{
		ID:       id,
		OwnerID:  p.OwnerID,
		Name:     req.Name,
		SKU:      req.SKU,
		Quantity: req.Quantity,
	}, expected)
}

func (s *ProductService) Delete(ctx context.Context, p domain.Principal, id string, ifVersion *int64) error {
	if err := s.authz.Allow(security.PolicyWrite, p); err != nil {
		return err
	}
	if !p.HasOwner() {
		return domain.ErrNotFound("product not found")
	}

	expected := int64(-1)
	if ifVersion != nil {
		expected = *ifVersion
	}
	return s.repo.Delete(ctx, p.OwnerID, id, expected)
}
