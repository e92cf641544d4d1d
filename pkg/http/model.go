package http

import "encoding/json"

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// RawAPIResponse is APIResponse with Data left undecoded, for clients.
type RawAPIResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"owner_id"`
	Message string                 `json:"message,omitempty" example:"owner_id is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
