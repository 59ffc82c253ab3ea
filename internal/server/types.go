package server

import "github.com/xdg/consolex/internal/procreg"

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ProcessList is the body of GET /processes.
type ProcessList struct {
	Processes []procreg.Info `json:"processes"`
}

// SignalRequest is the body of POST /processes/{id}/signal.
// An empty signal means TERM.
type SignalRequest struct {
	Signal string `json:"signal"`
}

// Error details with fixed wording.
const (
	DetailUnknownAction   = "Unknown action"
	DetailProcessNotFound = "Process not found"
	DetailProcessExited   = "Process has exited"
	DetailUnknownSignal   = "Unknown signal"
)
