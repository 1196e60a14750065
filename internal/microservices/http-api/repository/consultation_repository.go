package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"schooladmin/internal/microservices/http-api/models"
	"schooladmin/internal/table"
)

var ErrInvalidSortColumn = errors.New("invalid sort column")

// sortColumns maps the table column keys the dashboard can sort by onto SQL columns.
var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"phone":      "phone",
	"created_at": "created_at",
}

// SortableColumn reports whether key may be used as sort_by.
func SortableColumn(key string) bool {
	_, ok := sortColumns[key]
	return ok
}

type ConsultationRepository interface {
	List(ctx context.Context, query table.ListQuery) ([]models.Consultation, int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Consultation, error)
	GetByID(ctx context.Context, id uint64) (*models.Consultation, error)
}

type consultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

// List serves one page of the consultation table: filtered count plus the ordered page.
func (r *consultationRepository) List(ctx context.Context, query table.ListQuery) ([]models.Consultation, int64, error) {
	order := "created_at desc"
	if query.Sorted() {
		col, ok := sortColumns[query.SortBy]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidSortColumn, query.SortBy)
		}
		dir := "asc"
		if query.SortOrder == table.SortDesc {
			dir = "desc"
		}
		order = col + " " + dir
	}

	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = table.DefaultPageSize
	}

	var total int64
	if err := r.filtered(ctx, query.Search).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	var list []models.Consultation
	if err := r.filtered(ctx, query.Search).
		Preload("Course.Menu").
		Order(order).
		Order("id asc").
		Limit(pageSize).
		Offset(query.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}

	return list, total, nil
}

// filtered starts a fresh chain so Count and Find never share statement state.
func (r *consultationRepository) filtered(ctx context.Context, search string) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Consultation{})
	search = strings.TrimSpace(search)
	if search == "" {
		return db
	}
	p := "%" + search + "%"
	return db.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", p, p, p)
}

// ListRecent is the bulk feed behind the notification aggregator, newest first.
func (r *consultationRepository) ListRecent(ctx context.Context, limit int) ([]models.Consultation, error) {
	var list []models.Consultation
	if err := r.db.WithContext(ctx).
		Preload("Course.Menu").
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list recent consultations: %w", err)
	}
	return list, nil
}

func (r *consultationRepository) GetByID(ctx context.Context, id uint64) (*models.Consultation, error) {
	var c models.Consultation
	if err := r.db.WithContext(ctx).Preload("Course.Menu").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
