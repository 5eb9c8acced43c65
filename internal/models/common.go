package models

// ErrorResponse is the JSON error envelope returned by all REST handlers.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
