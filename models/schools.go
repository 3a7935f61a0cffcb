package models

import "time"

// School represents a school as returned by the API.
type School struct {
	ID            string     `json:"_id"`
	Name          string     `json:"school_name"`
	Email         string     `json:"email,omitempty"`
	Address       string     `json:"address,omitempty"`
	ContactNumber string     `json:"contact_number,omitempty"`
	Description   string     `json:"description,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	LogoURL       string     `json:"logo_url,omitempty"`
	QRURL         string     `json:"qr_url,omitempty"`
	VPNConfigURL  string     `json:"vpn_config_url,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// NewSchool is the payload of the add school form.
type NewSchool struct {
	Name          string     `json:"school_name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Address       string     `json:"address" validate:"required"`
	ContactNumber string     `json:"contact_number" validate:"required"`
	Description   string     `json:"description,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// SchoolUpdate is sent with PUT /schools/:id. Nil fields are left unchanged.
type SchoolUpdate struct {
	Name          *string    `json:"school_name,omitempty"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string    `json:"address,omitempty"`
	ContactNumber *string    `json:"contact_number,omitempty"`
	Description   *string    `json:"description,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	LogoURL       *string    `json:"logo_url,omitempty" validate:"omitempty,url"`
	VPNConfigURL  *string    `json:"vpn_config_url,omitempty" validate:"omitempty,url"`
}

// ConnectSchoolRequest attaches a user to a school.
type ConnectSchoolRequest struct {
	School string `json:"school" validate:"required"`
	User   string `json:"user" validate:"required"`
}

// QRCode is returned by /schools/generate-qr/:id.
type QRCode struct {
	QRURL string `json:"qr_url"`
}

// UploadedFile is returned by /files/upload.
type UploadedFile struct {
	URL string `json:"url"`
}
