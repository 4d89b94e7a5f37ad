package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/trapdoor-ai/trapdoor/internal/apierr"
)

type fileStatResponse struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type listEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  *int64 `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

type listResponse struct {
	Path    string      `json:"path"`
	Entries []listEntry `json:"entries"`
}

// handleFSList lists a directory, or stats a single file. Defaults to "/".
func (s *APIServer) handleFSList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "method not allowed"))
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	result, err := s.fs.List(path)
	if err != nil {
		writeError(w, err)
		return
	}

	if !result.IsDir {
		writeJSON(w, http.StatusOK, fileStatResponse{
			Path:     result.Path,
			Type:     "file",
			Size:     result.Size,
			Modified: result.Modified.Format(time.RFC3339),
		})
		return
	}

	entries := make([]listEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, listEntry{
			Name:  e.Name,
			Type:  e.Type,
			Size:  e.Size,
			Error: e.Err,
		})
	}
	writeJSON(w, http.StatusOK, listResponse{Path: result.Path, Entries: entries})
}

type readResponse struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Size    int64  `json:"size"`
	Error   string `json:"error,omitempty"`
}

// handleFSRead returns the full content of a file. Binary content yields a
// marker with size only, not a failure.
func (s *APIServer) handleFSRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "method not allowed"))
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "path query parameter is required"))
		return
	}

	result, err := s.fs.Read(path)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := readResponse{Path: result.Path, Size: result.Size}
	if result.Binary {
		resp.Error = "binary file"
	} else {
		resp.Content = result.Content
	}
	writeJSON(w, http.StatusOK, resp)
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Mode    string `json:"mode"`
}

type writeResponse struct {
	Path         string `json:"path"`
	BytesWritten int    `json:"bytesWritten"`
	Mode         string `json:"mode"`
}

// handleFSWrite writes or appends content to a file, creating parents.
func (s *APIServer) handleFSWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "path is required"))
		return
	}

	result, err := s.fs.Write(req.Path, req.Content, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResponse{
		Path:         result.Path,
		BytesWritten: result.Written,
		Mode:         result.Mode,
	})
}

type pathRequest struct {
	Path string `json:"path"`
}

type mkdirResponse struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// handleFSMkdir creates a directory tree. Idempotent.
func (s *APIServer) handleFSMkdir(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "path is required"))
		return
	}

	target, err := s.fs.Mkdir(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mkdirResponse{Path: target, Created: true})
}

type removeResponse struct {
	Path    string `json:"path"`
	Removed bool   `json:"removed"`
}

// handleFSRemove deletes a file or directory tree. Irreversible.
func (s *APIServer) handleFSRemove(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "path is required"))
		return
	}

	target, err := s.fs.Remove(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{Path: target, Removed: true})
}

// decodePost enforces the POST method and decodes the JSON body into dst.
// Returns false after writing the error response when the request is
// unusable.
func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "method not allowed"))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "invalid JSON body: %v", err))
		return false
	}
	return true
}
