package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"schooladmin/internal/microservices/http-api/models"
	"schooladmin/internal/microservices/http-api/repository"
	"schooladmin/internal/notification"
	"schooladmin/internal/table"
)

var ErrConsultationNotFound = errors.New("consultation not found")

type ConsultationService interface {
	List(ctx context.Context, query table.ListQuery) (table.Page[models.Consultation], error)
	Recent(ctx context.Context, limit int) ([]notification.Consultation, error)
	Get(ctx context.Context, id uint64) (*models.Consultation, error)
}

type consultationService struct {
	repo repository.ConsultationRepository
}

func NewConsultationService(repo repository.ConsultationRepository) ConsultationService {
	return &consultationService{repo: repo}
}

func (s *consultationService) List(ctx context.Context, query table.ListQuery) (table.Page[models.Consultation], error) {
	if query.Page < 1 {
		query.Page = table.DefaultPageIndex
	}
	if query.PageSize < 1 {
		query.PageSize = table.DefaultPageSize
	}

	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return table.Page[models.Consultation]{}, err
	}
	return table.Page[models.Consultation]{Rows: rows, TotalCount: total}, nil
}

// Recent returns the bulk consultation feed in the shape the aggregator ingests.
func (s *consultationService) Recent(ctx context.Context, limit int) ([]notification.Consultation, error) {
	list, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return ToNotificationRecords(list), nil
}

func (s *consultationService) Get(ctx context.Context, id uint64) (*models.Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return c, nil
}

func ToNotificationRecords(list []models.Consultation) []notification.Consultation {
	out := make([]notification.Consultation, 0, len(list))
	for _, c := range list {
		out = append(out, notification.Consultation{
			ID:        c.ID,
			Name:      c.Name,
			Email:     c.Email,
			Phone:     c.Phone,
			CreatedAt: c.CreatedAt,
			Course: notification.Course{
				Name: c.CourseName(),
				Menu: notification.Menu{Name: c.MenuName()},
			},
		})
	}
	return out
}
