package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/procreg"
)

func (s *Server) handleListProcesses(w http.ResponseWriter, _ *http.Request) {
	list := ProcessList{Processes: []procreg.Info{}}
	if s.Processes != nil {
		list.Processes = append(list.Processes, s.Processes.List()...)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	if s.Processes == nil {
		writeDetail(w, http.StatusNotFound, DetailProcessNotFound)
		return
	}
	info, ok := s.Processes.Get(r.PathValue("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, DetailProcessNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSignal processes POST /processes/{id}/signal. An empty body sends
// SIGTERM.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	sig, err := procreg.ParseSignal(req.Signal)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, DetailUnknownSignal)
		return
	}

	if s.Processes == nil {
		writeDetail(w, http.StatusNotFound, DetailProcessNotFound)
		return
	}

	id := r.PathValue("id")
	info, err := s.Processes.Signal(id, sig)
	switch {
	case errors.Is(err, procreg.ErrNotFound):
		writeDetail(w, http.StatusNotFound, DetailProcessNotFound)
		return
	case errors.Is(err, procreg.ErrExited):
		writeDetail(w, http.StatusConflict, DetailProcessExited)
		return
	case err != nil:
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	_ = s.AuditLogger.LogSignal(r.RemoteAddr, cmdline.Format(info.Args), info.ID, info.PID, procreg.SignalName(sig))
	writeJSON(w, http.StatusOK, info)
}
