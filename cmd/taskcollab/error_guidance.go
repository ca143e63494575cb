package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"taskcollab/internal/api"
)

// codeHints maps server error codes to follow-up advice for the CLI user.
var codeHints = map[string][]string{
	"unauthorized": {
		"hint: pass --token or set TASKCOLLAB_TOKEN.",
		"hint: mint a token with: taskcollab token <user-id> --email <address>",
	},
	"forbidden":          {"hint: your role on this task does not allow that; check: taskcollab collaborators permissions <task-id>"},
	"invalid_state":      {"hint: the invitation is no longer pending or has expired."},
	"resource_exhausted": {"hint: retry shortly or close other notification streams."},
}

// formatCLIError renders err as the message followed by any hints that apply.
func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}
	return append([]string{err.Error()}, hintsFor(err)...)
}

func hintsFor(err error) []string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		var hints []string
		if apiErr.Code == "" {
			hints = append(hints, "hint: verify TASKCOLLAB_API_URL points to a taskcollab server.")
		}
		hints = append(hints, codeHints[apiErr.Code]...)
		if apiErr.Status >= http.StatusInternalServerError {
			hints = append(hints, "hint: server returned an internal error; check server logs for details.")
		}
		return hints
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return []string{"hint: request timed out; check server health or increase TASKCOLLAB_HTTP_TIMEOUT."}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return []string{
			"hint: ensure a taskcollab server is running at TASKCOLLAB_API_URL.",
			"hint: start local server manually with: taskcollab srv",
		}
	}
	return nil
}
