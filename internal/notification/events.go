package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Push event names as they appear on the wire.
const (
	EventPaymentStatusUpdate = "payment_status_update"
	EventNewConsultation     = "new_consultation"
)

const PaymentStatusCompleted = "COMPLETED"

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Event is a decoded push event.
type Event interface {
	Name() string
	Validate() error
}

// Envelope is the JSON frame shared by the websocket and redis transports.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// FlexID accepts either a JSON string or a JSON number.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

type PaymentStudent struct {
	Name string `json:"name"`
}

type PaymentClass struct {
	Name   string `json:"name"`
	Course Course `json:"course"`
}

type Payment struct {
	ID      FlexID         `json:"id"`
	Status  string         `json:"status"`
	Student PaymentStudent `json:"student"`
	Class   PaymentClass   `json:"class"`
}

type PaymentStatusEvent struct {
	Payment Payment `json:"payment"`
}

func (PaymentStatusEvent) Name() string { return EventPaymentStatusUpdate }

func (e PaymentStatusEvent) Validate() error {
	var missing []string
	if strings.TrimSpace(string(e.Payment.ID)) == "" {
		missing = append(missing, "payment.id")
	}
	if strings.TrimSpace(e.Payment.Status) == "" {
		missing = append(missing, "payment.status")
	}
	if strings.TrimSpace(e.Payment.Student.Name) == "" {
		missing = append(missing, "payment.student.name")
	}
	if strings.TrimSpace(e.Payment.Class.Name) == "" {
		missing = append(missing, "payment.class.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing", ErrMalformedEvent, strings.Join(missing, ", "))
	}
	return nil
}

type ConsultationPush struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Course    Course     `json:"course"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type NewConsultationEvent struct {
	Consultation ConsultationPush `json:"consultation"`
}

func (NewConsultationEvent) Name() string { return EventNewConsultation }

func (e NewConsultationEvent) Validate() error {
	var missing []string
	if e.Consultation.ID == 0 {
		missing = append(missing, "consultation.id")
	}
	if strings.TrimSpace(e.Consultation.Name) == "" {
		missing = append(missing, "consultation.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing", ErrMalformedEvent, strings.Join(missing, ", "))
	}
	return nil
}

// DecodeEvent parses and validates one envelope. The returned error wraps either
// ErrMalformedEvent or ErrUnknownEvent.
func DecodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, fmt.Errorf("%w: %q has no data", ErrMalformedEvent, env.Event)
	}

	var ev Event
	switch env.Event {
	case EventPaymentStatusUpdate:
		var p PaymentStatusEvent
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev = p
	case EventNewConsultation:
		var c NewConsultationEvent
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// EncodeEvent wraps an event into its envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Name(), err)
	}
	return json.Marshal(Envelope{Event: ev.Name(), Data: data})
}

// DropReason labels a decode failure for logs and metrics.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrMalformedEvent):
		return "malformed_event"
	default:
		return "error"
	}
}

func paymentContent(p Payment) (title, message string) {
	class := p.Class.Name
	if course := strings.TrimSpace(p.Class.Course.Name); course != "" {
		class = fmt.Sprintf("%s (%s)", p.Class.Name, course)
	}
	if p.Status == PaymentStatusCompleted {
		return "Payment completed", fmt.Sprintf("%s completed the payment for %s", p.Student.Name, class)
	}
	return "Payment failed", fmt.Sprintf("Payment from %s for %s failed", p.Student.Name, class)
}

func consultationContent(name, menu string) (title, message string) {
	if strings.TrimSpace(menu) == "" {
		return "New consultation", fmt.Sprintf("%s requested a consultation", name)
	}
	return "New consultation", fmt.Sprintf("%s requested a consultation about %s", name, menu)
}
