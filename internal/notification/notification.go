package notification

import (
	"fmt"
	"strconv"
	"time"
)

// Type discriminates how a notification renders and what clicking it opens.
type Type string

const (
	TypePayment      Type = "payment"
	TypeConsultation Type = "consultation"
)

// Ref points at the business record behind a notification. Exactly one of the id
// fields is set, matching Type.
type Ref struct {
	Type           Type   `json:"type"`
	ConsultationID uint64 `json:"consultation_id,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
}

func ConsultationRef(id uint64) Ref {
	return Ref{Type: TypeConsultation, ConsultationID: id}
}

func PaymentRef(id string) Ref {
	return Ref{Type: TypePayment, PaymentID: id}
}

// Consultation returns the consultation id when the ref points at one.
func (r Ref) Consultation() (uint64, bool) {
	if r.Type != TypeConsultation || r.ConsultationID == 0 {
		return 0, false
	}
	return r.ConsultationID, true
}

// Notification is one entry of the admin alert list.
type Notification struct {
	ID        string    `json:"id"`
	Ref       Ref       `json:"ref"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// ConsultationNotificationID is deterministic so the bulk feed and the push channel
// agree on the id of the same consultation.
func ConsultationNotificationID(consultationID uint64) string {
	return "consultation-" + strconv.FormatUint(consultationID, 10)
}

// PaymentNotificationID is unique per delivery: repeated deliveries of a payment are
// recorded as separate notifications.
func PaymentNotificationID(paymentID string, receivedAt time.Time) string {
	return fmt.Sprintf("%s-%d", paymentID, receivedAt.UnixMilli())
}

type Menu struct {
	Name string `json:"name"`
}

type Course struct {
	Name string `json:"name,omitempty"`
	Menu Menu   `json:"menu"`
}

// Consultation is a record of the bulk consultation feed.
type Consultation struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	Course    Course    `json:"course"`
}

// ConsultationDetail is what the detail dialog of a consultation notification shows.
type ConsultationDetail struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	MenuName  string    `json:"menu_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Consultation) Detail() ConsultationDetail {
	return ConsultationDetail{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		MenuName:  c.Course.Menu.Name,
		CreatedAt: c.CreatedAt,
	}
}

// ConnectionState of the push channel. The numeric values are exported as a gauge.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
	Exhausted
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Exhausted:
		return "exhausted"
	default:
		return "disconnected"
	}
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnectionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "connected":
		*s = Connected
	case "exhausted":
		*s = Exhausted
	case "disconnected", "":
		*s = Disconnected
	default:
		return fmt.Errorf("unknown connection state %q", text)
	}
	return nil
}

// Snapshot is the read model handed to UI consumers.
type Snapshot struct {
	Notifications   []Notification  `json:"notifications"`
	UnreadCount     int             `json:"unread_count"`
	IsConnected     bool            `json:"is_connected"`
	ConnectionState ConnectionState `json:"connection_state"`
	// Version grows with every change; a higher version is a newer state.
	Version uint64 `json:"version"`
}
