package api

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// InfoResponse is the response from GET /v1/info.
type InfoResponse struct {
	SchemaVersion int    `json:"schema_version"`
	Store         string `json:"store"`
	Version       string `json:"version,omitempty"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Identities []string `json:"identities"`
}

// CountResponse wraps a single count.
type CountResponse struct {
	Count int `json:"count"`
}
