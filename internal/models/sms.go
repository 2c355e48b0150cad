package models

import "time"

const SMSStatusSimulated = "simulated"

// SMSResult records the outcome of one send attempt. It is returned to the
// caller but never persisted; a gateway failure is reported with
// Success=false and Error set rather than as a Go error.
type SMSResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"messageId,omitempty"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
