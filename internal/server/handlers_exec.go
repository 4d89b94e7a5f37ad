package server

import (
	"net/http"
	"time"

	"github.com/trapdoor-ai/trapdoor/internal/apierr"
	"github.com/trapdoor-ai/trapdoor/internal/gateway"
)

const (
	defaultExecCwd     = "/tmp"
	defaultExecTimeout = 60 * time.Second
)

type execRequest struct {
	Cmd            []string `json:"cmd"`
	Cwd            string   `json:"cwd"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
}

type execResponse struct {
	Cmd      []string `json:"cmd"`
	Cwd      string   `json:"cwd"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode int      `json:"exitCode"`
}

// handleExec runs one command as a literal argument vector. A nonzero exit
// code is a successful response; only "could not run" or "could not
// finish" conditions are errors.
func (s *APIServer) handleExec(w http.ResponseWriter, r *http.Request) {
	var req execRequest
	if !decodePost(w, r, &req) {
		return
	}
	if len(req.Cmd) == 0 {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "cmd is required"))
		return
	}

	cwd := req.Cwd
	if cwd == "" {
		cwd = defaultExecCwd
	}
	timeout := defaultExecTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	result, err := s.exec.Run(r.Context(), gateway.ExecRequest{
		Cmd:     req.Cmd,
		Cwd:     cwd,
		Timeout: timeout,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, execResponse{
		Cmd:      req.Cmd,
		Cwd:      cwd,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	})
}
