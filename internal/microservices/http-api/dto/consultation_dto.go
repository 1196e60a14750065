package dto

import (
	"time"

	"schooladmin/internal/microservices/http-api/models"
)

// ConsultationRow is one row of the consultation table.
type ConsultationRow struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CourseName string    `json:"course_name,omitempty"`
	MenuName   string    `json:"menu_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key identifies the row for table selection.
func (r ConsultationRow) Key() uint64 { return r.ID }

func NewConsultationRow(c models.Consultation) ConsultationRow {
	return ConsultationRow{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		CourseName: c.CourseName(),
		MenuName:   c.MenuName(),
		CreatedAt:  c.CreatedAt,
	}
}

type ConsultationListResponse struct {
	Data       []ConsultationRow `json:"data"`
	Pagination PaginationMeta    `json:"pagination"`
}

type RefreshResponse struct {
	Added int `json:"added"`
}
