package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/internal/logger"
	"schooladmin/internal/notification"
)

func seededAggregator() *notification.Aggregator {
	agg := notification.NewAggregator(logger.Discard())
	agg.IngestConsultations([]notification.Consultation{{
		ID:        7,
		Name:      "Eve",
		Email:     "eve@example.com",
		CreatedAt: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		Course:    notification.Course{Menu: notification.Menu{Name: "TOEIC"}},
	}})
	return agg
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	svc := NewNotificationService(seededAggregator())

	require.NoError(t, svc.MarkAsRead("consultation-7"))
	assert.Equal(t, 0, svc.Snapshot().UnreadCount)

	assert.ErrorIs(t, svc.MarkAsRead("consultation-999"), ErrNotificationNotFound)
}

func TestNotificationService_MarkAllAndClear(t *testing.T) {
	svc := NewNotificationService(seededAggregator())

	assert.Equal(t, 1, svc.MarkAllAsRead())
	assert.Equal(t, 0, svc.MarkAllAsRead())

	svc.ClearAll()
	assert.Empty(t, svc.Snapshot().Notifications)
}

func TestNotificationService_ConsultationDetail(t *testing.T) {
	agg := seededAggregator()
	svc := NewNotificationService(agg)

	detail, err := svc.ConsultationDetail("consultation-7")
	require.NoError(t, err)
	assert.Equal(t, "TOEIC", detail.MenuName)

	_, err = svc.ConsultationDetail("nope")
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	// a later fetch without the record leaves the notification but not the detail
	agg.IngestConsultations(nil)
	_, err = svc.ConsultationDetail("consultation-7")
	assert.ErrorIs(t, err, ErrDetailUnavailable)
}
