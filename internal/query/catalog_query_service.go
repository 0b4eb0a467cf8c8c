package query

import (
	"context"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

type CatalogQueryService struct {
	serviceReads *repository.ServiceReadRepository
	categories   *repository.CategoryRepository
	companies    *repository.CompanyRepository
}

func NewCatalogQueryService(
	serviceReads *repository.ServiceReadRepository,
	categories *repository.CategoryRepository,
	companies *repository.CompanyRepository,
) *CatalogQueryService {
	return &CatalogQueryService{serviceReads: serviceReads, categories: categories, companies: companies}
}

func (s *CatalogQueryService) GetService(ctx context.Context, q cqrs.GetServiceQuery) (*models.ServiceView, error) {
	return s.serviceReads.GetByID(ctx, q.ServiceID)
}

func (s *CatalogQueryService) ListServices(ctx context.Context, q cqrs.ListServicesQuery) ([]models.ServiceView, error) {
	return s.serviceReads.List(ctx, q.Search, q.CategoryID)
}

func (s *CatalogQueryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogQueryService) GetCompany(ctx context.Context, q cqrs.GetCompanyQuery) (*models.Company, error) {
	return s.companies.GetByID(ctx, q.CompanyID)
}

func (s *CatalogQueryService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.companies.List(ctx)
}
