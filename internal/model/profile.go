package model

import "time"

// Profile represents a registered user and their campus identity.
type Profile struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`

	// Role-specific attributes: the student fields are set when Role is
	// "student", Department when Role is "staff".
	StudentIDNumber string `json:"student_id_number,omitempty"`
	Semester        string `json:"semester,omitempty"`
	Department      string `json:"department,omitempty"`
}

// Roles.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)
