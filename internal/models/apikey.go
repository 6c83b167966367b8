package models

import "time"

type APIKey struct {
	ID           int64     `json:"id" db:"id"`
	Key          string    `json:"api_key" db:"api_key"`
	ClientName   string    `json:"client_name" db:"client_name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
