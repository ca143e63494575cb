package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskcollab/internal/store"
)

const defaultJSONMaxBody = 1 << 20 // 1 MiB

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

// decodeJSONReq reads exactly one JSON value into dst, answering 400 on failure.
func (s *Server) decodeJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, defaultJSONMaxBody)
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("request body must contain a single JSON value")
	}
	if err == nil {
		return true
	}

	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		err = tooLarge()
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		err = invalid(errors.New("invalid JSON payload"), ErrCodeInvalidJSON)
	default:
		err = invalid(err, ErrCodeInvalidJSON)
	}
	s.writeError(w, r, err)
	return false
}

func (s *Server) pathIDOrBadRequest(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(r.PathValue(name))
	if !store.ValidID(id) {
		s.writeError(w, r, invalid(fmt.Errorf("invalid %s", name), ErrCodeInvalidID))
		return "", false
	}
	return id, true
}

// parseFlexibleTime accepts RFC3339 timestamps or bare dates.
func parseFlexibleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid(errors.New("expected RFC3339 or YYYY-MM-DD format"), ErrCodeInvalidTimeFilter)
}
