package models

import "time"

type User struct {
	ID                  int64     `json:"id" db:"id"`
	Username            string    `json:"username" db:"username"`
	PasswordHash        string    `json:"-" db:"password_hash"`
	Email               string    `json:"email" db:"email"`
	PhoneNumber         *string   `json:"phone_number,omitempty" db:"phone_number"`
	PhoneNumberVerified bool      `json:"phone_number_verified" db:"phone_number_verified"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type Todo struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Description string    `json:"description" db:"description"`
	Done        bool      `json:"done" db:"done"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
