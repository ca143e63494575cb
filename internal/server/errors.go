package server

import (
	"errors"
	"fmt"
	"net/http"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
	"taskcollab/internal/store"
)

// httpError carries the HTTP rendering of a failure: status, string code and
// numeric error code.
type httpError struct {
	status  int
	code    string
	errCode int
	err     error
}

func (e *httpError) Error() string { return e.err.Error() }

func (e *httpError) Unwrap() error { return e.err }

var statusCodes = map[int]string{
	http.StatusBadRequest:          "invalid_argument",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "invalid_state",
	http.StatusTooManyRequests:     "resource_exhausted",
	http.StatusInternalServerError: "internal",
	http.StatusNotImplemented:      "not_implemented",
}

func newHTTPError(status, errCode int, err error) *httpError {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	if errCode == 0 {
		errCode = defaultErrorCodeByStatus(status)
	}
	return &httpError{status: status, code: statusCodes[status], errCode: errCode, err: err}
}

func invalid(err error, errCode int) error {
	return newHTTPError(http.StatusBadRequest, errCode, err)
}

func unauthorized(err error) error {
	return newHTTPError(http.StatusUnauthorized, ErrCodeUnauthorized, err)
}

// asHTTPError resolves any error to its HTTP form. Domain kinds map to their
// statuses and anything unrecognised is an internal store failure.
func asHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	switch collab.KindOf(err) {
	case collab.KindNotFound:
		return newHTTPError(http.StatusNotFound, ErrCodeNotFound, err)
	case collab.KindInvalidState:
		return newHTTPError(http.StatusConflict, ErrCodeInvalidState, err)
	case collab.KindInvalidArgument:
		return newHTTPError(http.StatusBadRequest, ErrCodeInvalidArgument, err)
	case collab.KindForbidden:
		return newHTTPError(http.StatusForbidden, ErrCodeForbidden, err)
	}
	if errors.Is(err, store.ErrNotFound) {
		return newHTTPError(http.StatusNotFound, ErrCodeNotFound, err)
	}
	return newHTTPError(http.StatusInternalServerError, ErrCodeStoreFailure, err)
}

// writeError logs and renders err. Internal errors are logged in full and
// reported to the client without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := asHTTPError(err)
	message := he.Error()

	logger := s.log().With("status", he.status, "code", he.code, "error_code", he.errCode, "error", he.err)
	if r != nil {
		logger = logger.With("method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}
	switch he.status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		logger.Warn("request rejected")
	default:
		if he.status >= http.StatusInternalServerError {
			logger.Error("request failed")
			message = "internal error"
		} else {
			logger.Debug("request rejected")
		}
	}

	s.writeJSON(w, he.status, api.ErrorResponse{Error: message, Code: he.code, ErrorCode: he.errCode})
}

func tooLarge() error {
	return invalid(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
}
