package store

import "time"

// Webhook represents a stored webhook definition
type Webhook struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Method      string    `json:"method"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

// Input carries the mutable fields for create and update operations
type Input struct {
	Name        string
	URL         string
	Method      string
	Description string
}
