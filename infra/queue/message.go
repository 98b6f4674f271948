package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SmsPayload is the message body published on the sms_outbound topic by the
// gateway and consumed by the sms-worker. The ID exists so duplicate
// deliveries can be spotted in logs; delivery itself is at-least-effort.
type SmsPayload struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Message     string    `json:"message"`
	Language    string    `json:"language"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

func NewSmsPayload(phoneNumber, message, language string) SmsPayload {
	return SmsPayload{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		Message:     message,
		Language:    language,
		EnqueuedAt:  time.Now(),
	}
}

func (p SmsPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func UnmarshalSmsPayload(data []byte) (SmsPayload, error) {
	var p SmsPayload
	err := json.Unmarshal(data, &p)
	return p, err
}
