package dto

import "schooladmin/internal/notification"

type NotificationListResponse struct {
	Notifications   []notification.Notification  `json:"notifications"`
	UnreadCount     int                          `json:"unread_count"`
	IsConnected     bool                         `json:"is_connected"`
	ConnectionState notification.ConnectionState `json:"connection_state"`
}

func NewNotificationListResponse(snap notification.Snapshot) NotificationListResponse {
	list := snap.Notifications
	if list == nil {
		list = []notification.Notification{}
	}
	return NotificationListResponse{
		Notifications:   list,
		UnreadCount:     snap.UnreadCount,
		IsConnected:     snap.IsConnected,
		ConnectionState: snap.ConnectionState,
	}
}
