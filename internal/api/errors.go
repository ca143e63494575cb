package api

import "fmt"

// APIError is a non-2xx response decoded from the server's JSON error body.
// Code and ErrorCode are empty when the body was not a taskcollab error.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message == "" && e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	case e.Message == "":
		return "api error"
	case e.Code == "":
		return e.Message
	}
	return e.Code + ": " + e.Message
}
