package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UserType is the role classification returned by the API in the "type" field.
type UserType string

const (
	SuperAdmin    UserType = "super_admin"
	Admin         UserType = "admin"
	SchoolManager UserType = "school_manager"
	Student       UserType = "student"
)

// UserTypes lists every known user type, most privileged first.
var UserTypes = []UserType{SuperAdmin, Admin, SchoolManager, Student}

// StaffTypes are the personnel classifications that can be assigned from the staff forms.
var StaffTypes = []UserType{Admin, SchoolManager}

// Valid reports whether t is one of the known user types.
func (t UserType) Valid() bool {
	for _, known := range UserTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether t is a staff type rather than an end user.
func (t UserType) IsStaff() bool {
	return t == Admin || t == SchoolManager
}

// User represents an account as returned by the API.
type User struct {
	ID            string     `json:"_id"`
	Email         string     `json:"email"`
	Type          UserType   `json:"type"`
	FullName      string     `json:"full_name,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	JobTitle      string     `json:"job_title,omitempty"`
	School        *SchoolRef `json:"school,omitempty"`

	// Student-only attributes
	RollNo  string `json:"roll_no,omitempty"`
	Section string `json:"section,omitempty"`
	Age     int    `json:"age,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

// SchoolID returns the id of the school the user belongs to, if any.
func (u *User) SchoolID() string {
	if u == nil || u.School == nil {
		return ""
	}
	return u.School.ID
}

// SchoolRef is a reference to a school. The API sends either the bare id or
// the populated school document.
type SchoolRef struct {
	ID   string `json:"_id"`
	Name string `json:"school_name,omitempty"`
}

func (s *SchoolRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.ID)
	}

	var populated struct {
		ID   string `json:"_id"`
		Name string `json:"school_name"`
	}
	if err := json.Unmarshal(data, &populated); err != nil {
		return fmt.Errorf("failed to decode school reference: %w", err)
	}
	s.ID = populated.ID
	s.Name = populated.Name
	return nil
}

func (s SchoolRef) MarshalJSON() ([]byte, error) {
	if s.Name == "" {
		return json.Marshal(s.ID)
	}
	type populated SchoolRef
	return json.Marshal(populated(s))
}

// LoginRequest holds the credentials posted to /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	FullName        string   `json:"full_name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	ConfirmPassword string   `json:"confirm_password,omitempty" validate:"required,eqfield=Password"`
	Type            UserType `json:"type,omitempty"`
}

// VerifyEmailRequest confirms an address with the code the API mailed out.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// NewStaff is the payload of the add staff form.
type NewStaff struct {
	FullName string   `json:"full_name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=8"`
	Type     UserType `json:"type" validate:"required,stafftype"`
	JobTitle string   `json:"job_title" validate:"required"`
	School   string   `json:"school" validate:"required"`
}

// UserUpdate is sent with PATCH /users/:id and /users/me. Nil fields are left unchanged.
type UserUpdate struct {
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	JobTitle  *string   `json:"job_title,omitempty"`
	Type      *UserType `json:"type,omitempty"`
	School    *string   `json:"school,omitempty"`
	RollNo    *string   `json:"roll_no,omitempty"`
	Section   *string   `json:"section,omitempty"`
	Age       *int      `json:"age,omitempty" validate:"omitempty,min=1,max=120"`
	Gender    *string   `json:"gender,omitempty"`
}
