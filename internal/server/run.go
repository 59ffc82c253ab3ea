package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/dispatch"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusMessage})
}

// handleRun processes POST /run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		clog.Debug("rejected run request from %s: %v", r.RemoteAddr, err)
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req.Remote = r.RemoteAddr

	result, err := s.Commands.Handle(req)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidAction):
			writeDetail(w, http.StatusBadRequest, DetailUnknownAction)
		default:
			// *dispatch.ExecutionError carries the raw OS error text.
			writeDetail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if open, ok := result.(dispatch.OpenResult); ok && open.ProcessID != "" {
		w.Header().Set(ProcessIDHeader, open.ProcessID)
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeRunRequest type-checks the body: it must be a JSON object with a
// string action and, optionally, an array of strings as args. A missing or
// null args is an empty list.
func decodeRunRequest(body io.Reader) (dispatch.CommandRequest, error) {
	var raw struct {
		Action json.RawMessage `json:"action"`
		Args   json.RawMessage `json:"args"`
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return dispatch.CommandRequest{}, fmt.Errorf("failed to read body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return dispatch.CommandRequest{}, errors.New("body must be a JSON object")
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return dispatch.CommandRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	if isNull(raw.Action) {
		return dispatch.CommandRequest{}, errors.New("action is required")
	}
	var req dispatch.CommandRequest
	if err := json.Unmarshal(raw.Action, &req.Action); err != nil {
		return dispatch.CommandRequest{}, errors.New("action must be a string")
	}

	args, err := decodeArgs(raw.Args)
	if err != nil {
		return dispatch.CommandRequest{}, err
	}
	req.Args = args
	return req, nil
}

// decodeArgs decodes a JSON array of strings. encoding/json turns a null
// element into "", so elements are checked one at a time.
func decodeArgs(data json.RawMessage) ([]string, error) {
	errArgs := errors.New("args must be an array of strings")
	if isNull(data) {
		return []string{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, errArgs
	}
	args := make([]string, 0, len(elems))
	for _, elem := range elems {
		var arg string
		if isNull(elem) || json.Unmarshal(elem, &arg) != nil {
			return nil, errArgs
		}
		args = append(args, arg)
	}
	return args, nil
}

func isNull(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}
