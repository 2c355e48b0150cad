package models

import "time"

// Subscriber is a phone number opted into frost alerts. Phone is stored
// normalized (no spaces, +51 prefix) and is unique.
type Subscriber struct {
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
