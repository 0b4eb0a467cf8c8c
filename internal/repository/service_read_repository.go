package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	sharedredis "github.com/servicehub/marketplace/shared/redis"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const serviceViewKeyPrefix = "service:view:"

// ServiceReadRepository handles catalog reads. Single lookups use Redis as the
// primary read store and fall back to the database on a miss.
type ServiceReadRepository struct {
	db    *gorm.DB
	cache sharedredis.Cache[models.ServiceView]
}

func NewServiceReadRepository(db *gorm.DB, cache sharedredis.Cache[models.ServiceView]) *ServiceReadRepository {
	return &ServiceReadRepository{db: db, cache: cache}
}

type serviceRow struct {
	ID           string
	Name         string
	Description  string
	Price        decimal.Decimal
	CategoryID   string
	CategoryName string
	CompanyID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (row serviceRow) view() models.ServiceView {
	return models.ServiceView{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        row.Price.StringFixed(2),
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
		CompanyID:    row.CompanyID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r *ServiceReadRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("services").
		Select("services.id, services.name, services.description, services.price, services.category_id, " +
			"categories.name AS category_name, services.company_id, services.created_at, services.updated_at").
		Joins("LEFT JOIN categories ON categories.id = services.category_id")
}

func (r *ServiceReadRepository) GetByID(ctx context.Context, id string) (*models.ServiceView, error) {
	if view, ok := r.cache.Get(ctx, serviceViewKeyPrefix+id); ok {
		return view, nil
	}

	var row serviceRow
	err := r.base(ctx).Where("services.id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	view := row.view()
	r.CacheServiceView(ctx, &view)
	return &view, nil
}

// List reads straight from the database; search matches a name substring.
func (r *ServiceReadRepository) List(ctx context.Context, search, categoryID string) ([]models.ServiceView, error) {
	q := r.base(ctx).Order("services.name")
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(services.name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if categoryID != "" {
		q = q.Where("services.category_id = ?", categoryID)
	}

	var rows []serviceRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	views := make([]models.ServiceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

func (r *ServiceReadRepository) CacheServiceView(ctx context.Context, view *models.ServiceView) {
	r.cache.Set(ctx, serviceViewKeyPrefix+view.ID, view)
}

func (r *ServiceReadRepository) InvalidateServiceView(ctx context.Context, id string) {
	r.cache.Delete(ctx, serviceViewKeyPrefix+id)
}
