package models

// Response represents a generic API response structure.
type Response struct {
	Success      int               `json:"success"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorDetails string            `json:"error_details,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Data         interface{}       `json:"data,omitempty"`
}

// Page is the envelope the API uses for paginated lists.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}
