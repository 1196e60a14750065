package service

import (
	"errors"

	"schooladmin/internal/notification"
)

var ErrNotificationNotFound = errors.New("notification not found")

// ErrDetailUnavailable means the notification exists but its consultation is no
// longer part of the cached feed, or the notification is not consultation-typed.
var ErrDetailUnavailable = errors.New("consultation detail unavailable")

type NotificationService interface {
	Snapshot() notification.Snapshot
	MarkAsRead(id string) error
	MarkAllAsRead() int
	ClearAll()
	ConsultationDetail(id string) (notification.ConsultationDetail, error)
}

type notificationService struct {
	agg *notification.Aggregator
}

func NewNotificationService(agg *notification.Aggregator) NotificationService {
	return &notificationService{agg: agg}
}

func (s *notificationService) Snapshot() notification.Snapshot {
	return s.agg.Snapshot()
}

func (s *notificationService) MarkAsRead(id string) error {
	if !s.agg.MarkAsRead(id) {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllAsRead() int {
	return s.agg.MarkAllAsRead()
}

func (s *notificationService) ClearAll() {
	s.agg.ClearAll()
}

func (s *notificationService) ConsultationDetail(id string) (notification.ConsultationDetail, error) {
	if _, ok := s.agg.Get(id); !ok {
		return notification.ConsultationDetail{}, ErrNotificationNotFound
	}
	detail, ok := s.agg.ConsultationDetail(id)
	if !ok {
		return notification.ConsultationDetail{}, ErrDetailUnavailable
	}
	return detail, nil
}
