package httpapi

import "net/http"

// Error codes the dashboard UI branches on.
const (
	CodePullRunning   = "pull_running"
	CodeStatsFailed   = "stats_failed"
	CodeInternalError = "internal_error"
)

type apiError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	writeJSON(w, status, e)
}
