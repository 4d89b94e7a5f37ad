package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/apierr"
	"github.com/trapdoor-ai/trapdoor/internal/audit"
	"github.com/trapdoor-ai/trapdoor/internal/auth"
	"github.com/trapdoor-ai/trapdoor/internal/chatproxy"
	"github.com/trapdoor-ai/trapdoor/internal/gateway"
	"github.com/trapdoor-ai/trapdoor/internal/version"
)

// APIServer binds authentication, the access policy, and the two gateways
// to the externally visible HTTP operations. All fields are immutable
// after construction: the access level and token never change for the
// lifetime of the process.
type APIServer struct {
	level access.Level
	auth  *auth.Authenticator
	fs    *gateway.FS
	exec  *gateway.Exec
	chat  *chatproxy.Relay
	audit *audit.Store // optional

	httpServer *http.Server
	startTime  time.Time
}

// Options configures a new APIServer.
type Options struct {
	Level access.Level
	Token string
	Chat  *chatproxy.Relay // nil means stub-mode relay
	Audit *audit.Store     // nil disables the audit trail
}

// New creates an APIServer. The token is required: an instance without a
// secret would expose the machine to anyone who finds the port.
func New(opts Options) (*APIServer, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("server: token is required")
	}
	chat := opts.Chat
	if chat == nil {
		chat = chatproxy.New("")
	}

	return &APIServer{
		level:     opts.Level,
		auth:      auth.NewAuthenticator(opts.Token),
		fs:        gateway.NewFS(opts.Level),
		exec:      gateway.NewExec(opts.Level),
		chat:      chat,
		audit:     opts.Audit,
		startTime: time.Now(),
	}, nil
}

// Handler returns the fully wired HTTP handler: routes, bearer
// authentication, CORS, and audit recording.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/fs/ls", s.handleFSList)
	mux.HandleFunc("/fs/read", s.handleFSRead)
	mux.HandleFunc("/fs/write", s.handleFSWrite)
	mux.HandleFunc("/fs/mkdir", s.handleFSMkdir)
	mux.HandleFunc("/fs/rm", s.handleFSRemove)
	mux.HandleFunc("/exec", s.handleExec)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)

	return s.wrapWithAudit(s.wrapWithSecurity(mux))
}

// wrapWithSecurity enforces bearer authentication on every route except
// the health check. Authentication runs before any capability or path
// work, so 401/403 responses never reveal whether the target exists.
func (s *APIServer) wrapWithSecurity(next http.Handler) http.Handler {
	corsHandler := wrapWithCORS(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			corsHandler.ServeHTTP(w, r)
			return
		}

		if err := s.auth.AuthenticateRequest(r); err != nil {
			writeError(w, err)
			return
		}

		corsHandler.ServeHTTP(w, r)
	})
}

func isPublicEndpoint(r *http.Request) bool {
	return r.URL.Path == "/health" || r.Method == http.MethodOptions
}

// wrapWithCORS mirrors the permissive CORS posture of the gateway: remote
// browser-hosted callers are expected, and the token is the protection
// boundary, not the origin.
func wrapWithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the audit trail.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// wrapWithAudit records every request outcome, including authentication
// failures. Best-effort: audit problems are logged, never surfaced.
func (s *APIServer) wrapWithAudit(next http.Handler) http.Handler {
	if s.audit == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := s.audit.Record(ctx, audit.Entry{
			Method: r.Method,
			Route:  r.URL.Path,
			Status: recorder.status,
			Kind:   kindForStatus(recorder.status),
		})
		if err != nil {
			log.Printf("[APIServer] audit record failed: %v", err)
		}
	})
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return string(apierr.KindUnauthenticated)
	case http.StatusForbidden:
		return string(apierr.KindForbidden)
	case http.StatusNotFound:
		return string(apierr.KindNotFound)
	case http.StatusRequestTimeout:
		return string(apierr.KindTimeout)
	case http.StatusBadRequest:
		return string(apierr.KindInvalidOperation)
	}
	if status >= 500 {
		return string(apierr.KindInternal)
	}
	return "ok"
}

type healthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	AccessLevel string            `json:"access_level"`
	Permissions healthPermissions `json:"permissions"`
	Timestamp   string            `json:"timestamp"`
}

type healthPermissions struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
	Exec   bool `json:"exec"`
}

// handleHealth reports the active access level. It requires no
// authentication so a remote caller can confirm reachability before being
// handed the token.
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apierr.New(apierr.KindInvalidOperation, "method not allowed"))
		return
	}

	grants := s.level.Grants()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     version.String(),
		AccessLevel: s.level.String(),
		Permissions: healthPermissions{
			Read:   grants.Read,
			Write:  grants.Write,
			Delete: grants.Delete,
			Exec:   grants.Exec,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Start serves HTTP on addr until Shutdown or a listener error.
func (s *APIServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Serve serves HTTP on an existing listener (used by the CLI after port
// probing).
func (s *APIServer) Serve(listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the HTTP server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
