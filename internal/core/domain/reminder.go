package domain

import "time"

// Reminder is a user note scheduled for a future moment.
type Reminder struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"-"`
	Text      string    `json:"text"`
	FireAt    time.Time `json:"datetime"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}
