package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogCommandService writes categories, companies and services and keeps
// the Redis service views in step.
type CatalogCommandService struct {
	categories   *repository.CategoryRepository
	companies    *repository.CompanyRepository
	services     *repository.ServiceRepository
	serviceReads *repository.ServiceReadRepository
	logger       *zap.Logger
}

func NewCatalogCommandService(
	categories *repository.CategoryRepository,
	companies *repository.CompanyRepository,
	services *repository.ServiceRepository,
	serviceReads *repository.ServiceReadRepository,
	logger *zap.Logger,
) *CatalogCommandService {
	return &CatalogCommandService{
		categories:   categories,
		companies:    companies,
		services:     services,
		serviceReads: serviceReads,
		logger:       logger,
	}
}

func (s *CatalogCommandService) CreateCategory(ctx context.Context, cmd cqrs.CreateCategoryCommand) (*models.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", apperrors.ErrValidation)
	}
	category := &models.Category{
		ID:        utils.GenerateID(utils.PrefixCategory),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogCommandService) DeleteCategory(ctx context.Context, cmd cqrs.DeleteCategoryCommand) error {
	return s.categories.Delete(ctx, cmd.CategoryID)
}

func (s *CatalogCommandService) CreateCompany(ctx context.Context, cmd cqrs.CreateCompanyCommand) (*models.Company, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: company name is required", apperrors.ErrValidation)
	}
	now := time.Now().UTC()
	company := &models.Company{
		ID:        utils.GenerateID(utils.PrefixCompany),
		OwnerID:   cmd.Actor.AccountID,
		Name:      name,
		Phone:     strings.TrimSpace(cmd.Phone),
		Location:  strings.TrimSpace(cmd.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CatalogCommandService) CreateService(ctx context.Context, cmd cqrs.CreateServiceCommand) (*models.ServiceView, error) {
	name, price, err := validateServiceFields(cmd.Name, cmd.Price)
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, cmd.CategoryID); err != nil {
		return nil, err
	}
	if err := s.authorizeCompany(ctx, cmd.Actor, cmd.CompanyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	service := &models.Service{
		ID:          utils.GenerateID(utils.PrefixService),
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Price:       price,
		CategoryID:  cmd.CategoryID,
		CompanyID:   cmd.CompanyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, err
	}
	s.logger.Info("service created", zap.String("serviceId", service.ID), zap.String("companyId", service.CompanyID))
	return s.serviceReads.GetByID(ctx, service.ID)
}

func (s *CatalogCommandService) UpdateService(ctx context.Context, cmd cqrs.UpdateServiceCommand) (*models.ServiceView, error) {
	service, err := s.services.GetByID(ctx, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCompany(ctx, cmd.Actor, service.CompanyID); err != nil {
		return nil, err
	}
	name, price, err := validateServiceFields(cmd.Name, cmd.Price)
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, cmd.CategoryID); err != nil {
		return nil, err
	}

	service.Name = name
	service.Description = strings.TrimSpace(cmd.Description)
	service.Price = price
	service.CategoryID = cmd.CategoryID
	service.UpdatedAt = time.Now().UTC()
	if err := s.services.Update(ctx, service); err != nil {
		return nil, err
	}
	s.serviceReads.InvalidateServiceView(ctx, service.ID)
	return s.serviceReads.GetByID(ctx, service.ID)
}

func (s *CatalogCommandService) DeleteService(ctx context.Context, cmd cqrs.DeleteServiceCommand) error {
	service, err := s.services.GetByID(ctx, cmd.ServiceID)
	if err != nil {
		return err
	}
	if err := s.authorizeCompany(ctx, cmd.Actor, service.CompanyID); err != nil {
		return err
	}
	if err := s.services.Delete(ctx, service.ID); err != nil {
		return err
	}
	s.serviceReads.InvalidateServiceView(ctx, service.ID)
	s.logger.Info("service deleted", zap.String("serviceId", service.ID))
	return nil
}

// authorizeCompany lets admins through and requires providers to own the company.
func (s *CatalogCommandService) authorizeCompany(ctx context.Context, actor auth.Identity, companyID string) error {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if !actor.CanActFor(company.OwnerID) {
		return fmt.Errorf("%w: company belongs to another provider", apperrors.ErrForbidden)
	}
	return nil
}

func validateServiceFields(name string, price decimal.Decimal) (string, decimal.Decimal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", decimal.Zero, fmt.Errorf("%w: service name is required", apperrors.ErrValidation)
	}
	if price.IsNegative() {
		return "", decimal.Zero, fmt.Errorf("%w: price must not be negative", apperrors.ErrValidation)
	}
	return name, price.Round(2), nil
}
