package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_Payment(t *testing.T) {
	raw := `{"event":"payment_status_update","data":{"payment":{"id":981,"status":"COMPLETED",
		"student":{"name":"Alice"},"class":{"name":"B2 Morning","course":{"name":"English"}}}}}`

	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	p, ok := ev.(PaymentStatusEvent)
	require.True(t, ok)
	assert.Equal(t, FlexID("981"), p.Payment.ID)
	assert.Equal(t, "COMPLETED", p.Payment.Status)
	assert.Equal(t, "English", p.Payment.Class.Course.Name)
}

func TestDecodeEvent_PaymentStringID(t *testing.T) {
	raw := `{"event":"payment_status_update","data":{"payment":{"id":"pay_01H","status":"FAILED",
		"student":{"name":"Alice"},"class":{"name":"B2"}}}}`

	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, FlexID("pay_01H"), ev.(PaymentStatusEvent).Payment.ID)
}

func TestDecodeEvent_Consultation(t *testing.T) {
	raw := `{"event":"new_consultation","data":{"consultation":{"id":42,"name":"Bob",
		"course":{"menu":{"name":"TOEIC"}},"timestamp":"2024-01-01T10:00:00Z"}}}`

	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	c, ok := ev.(NewConsultationEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(42), c.Consultation.ID)
	assert.Equal(t, "TOEIC", c.Consultation.Course.Menu.Name)
	require.NotNil(t, c.Consultation.Timestamp)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), c.Consultation.Timestamp.UTC())
}

func TestDecodeEvent_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"NotJSON", `{nope`, ErrMalformedEvent},
		{"NoData", `{"event":"new_consultation"}`, ErrMalformedEvent},
		{"NullData", `{"event":"new_consultation","data":null}`, ErrMalformedEvent},
		{"Unknown", `{"event":"chat","data":{}}`, ErrUnknownEvent},
		{"ConsultationMissingID", `{"event":"new_consultation","data":{"consultation":{"name":"Bob"}}}`, ErrMalformedEvent},
		{"ConsultationStringID", `{"event":"new_consultation","data":{"consultation":{"id":"42","name":"Bob"}}}`, ErrMalformedEvent},
		{"ConsultationBadTimestamp", `{"event":"new_consultation","data":{"consultation":{"id":4,"name":"Bob","timestamp":"yesterday"}}}`, ErrMalformedEvent},
		{"PaymentMissingStatus", `{"event":"payment_status_update","data":{"payment":{"id":1,"student":{"name":"A"},"class":{"name":"B"}}}}`, ErrMalformedEvent},
		{"PaymentMissingStudent", `{"event":"payment_status_update","data":{"payment":{"id":1,"status":"COMPLETED","class":{"name":"B"}}}}`, ErrMalformedEvent},
		{"PaymentObjectID", `{"event":"payment_status_update","data":{"payment":{"id":{"x":1},"status":"COMPLETED"}}}`, ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.raw))
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncodeEvent_RoundTripsThroughDecode(t *testing.T) {
	raw, err := EncodeEvent(paymentEvent("55", PaymentStatusCompleted))
	require.NoError(t, err)

	ev, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentStatusUpdate, ev.Name())
}

func TestDropReason(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event":"chat","data":{}}`))
	assert.Equal(t, "unknown_event", DropReason(err))

	_, err = DecodeEvent([]byte(`{`))
	assert.Equal(t, "malformed_event", DropReason(err))

	assert.Equal(t, "error", DropReason(assert.AnError))
}

func TestNotificationIDs(t *testing.T) {
	assert.Equal(t, "consultation-42", ConsultationNotificationID(42))
	assert.Equal(t, "pay_7-1709294400000", PaymentNotificationID("pay_7", fixedNow))

	id, ok := ConsultationRef(42).Consultation()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	_, ok = PaymentRef("7").Consultation()
	assert.False(t, ok)
}

func TestConnectionStateText(t *testing.T) {
	for state, want := range map[ConnectionState]string{
		Disconnected: "disconnected",
		Connected:    "connected",
		Exhausted:    "exhausted",
	} {
		text, err := state.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, want, string(text))

		var back ConnectionState
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, state, back)
	}

	var bad ConnectionState
	assert.Error(t, bad.UnmarshalText([]byte("flapping")))
}
