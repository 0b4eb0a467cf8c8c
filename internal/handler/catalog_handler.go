package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/shopspring/decimal"
)

// CatalogCommander defines the write-side operations used by CatalogHandler.
type CatalogCommander interface {
	CreateCategory(context.Context, cqrs.CreateCategoryCommand) (*models.Category, error)
	DeleteCategory(context.Context, cqrs.DeleteCategoryCommand) error
	CreateCompany(context.Context, cqrs.CreateCompanyCommand) (*models.Company, error)
	CreateService(context.Context, cqrs.CreateServiceCommand) (*models.ServiceView, error)
	UpdateService(context.Context, cqrs.UpdateServiceCommand) (*models.ServiceView, error)
	DeleteService(context.Context, cqrs.DeleteServiceCommand) error
}

// CatalogQuerier defines the read-side operations used by CatalogHandler.
type CatalogQuerier interface {
	GetService(context.Context, cqrs.GetServiceQuery) (*models.ServiceView, error)
	ListServices(context.Context, cqrs.ListServicesQuery) ([]models.ServiceView, error)
	ListCategories(context.Context) ([]models.Category, error)
	GetCompany(context.Context, cqrs.GetCompanyQuery) (*models.Company, error)
	ListCompanies(context.Context) ([]models.Company, error)
}

type CatalogHandler struct {
	commands CatalogCommander
	queries  CatalogQuerier
}

// ServiceRequest carries the price as a decimal string or number, e.g. "50.00".
type ServiceRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=100"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId" validate:"required"`
	CompanyID   string          `json:"companyId" validate:"required"`
}

// UpdateServiceRequest cannot move a service to another company.
type UpdateServiceRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=100"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId" validate:"required"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

type CompanyRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=150"`
	Phone    string `json:"phone" validate:"max=32"`
	Location string `json:"location" validate:"max=255"`
}

type ListServicesResponse struct {
	Services []models.ServiceView `json:"services"`
}

type ListCategoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type ListCompaniesResponse struct {
	Companies []models.Company `json:"companies"`
}

func NewCatalogHandler(commands CatalogCommander, queries CatalogQuerier) *CatalogHandler {
	return &CatalogHandler{commands: commands, queries: queries}
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	views, err := h.queries.ListServices(c.Request.Context(), cqrs.ListServicesQuery{
		Search:     c.Query("search"),
		CategoryID: c.Query("category"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListServicesResponse{Services: views})
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	view, err := h.queries.GetService(c.Request.Context(), cqrs.GetServiceQuery{ServiceID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req ServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.CreateService(c.Request.Context(), cqrs.CreateServiceCommand{
		Actor:       middleware.MustIdentity(c),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	var req UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.UpdateService(c.Request.Context(), cqrs.UpdateServiceCommand{
		Actor:       middleware.MustIdentity(c),
		ServiceID:   c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CatalogHandler) DeleteService(c *gin.Context) {
	err := h.commands.DeleteService(c.Request.Context(), cqrs.DeleteServiceCommand{
		Actor:     middleware.MustIdentity(c),
		ServiceID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.queries.ListCategories(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListCategoriesResponse{Categories: categories})
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.commands.CreateCategory(c.Request.Context(), cqrs.CreateCategoryCommand{Name: req.Name})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.commands.DeleteCategory(c.Request.Context(), cqrs.DeleteCategoryCommand{CategoryID: c.Param("id")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListCompanies(c *gin.Context) {
	companies, err := h.queries.ListCompanies(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListCompaniesResponse{Companies: companies})
}

func (h *CatalogHandler) GetCompany(c *gin.Context) {
	company, err := h.queries.GetCompany(c.Request.Context(), cqrs.GetCompanyQuery{CompanyID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CatalogHandler) CreateCompany(c *gin.Context) {
	var req CompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.commands.CreateCompany(c.Request.Context(), cqrs.CreateCompanyCommand{
		Actor:    middleware.MustIdentity(c),
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}
