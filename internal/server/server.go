// Package server exposes NEXTHASH-256 and HMAC-NEXTHASH-256 over a
// small REST API, with RBAC-gated endpoints, audit logging, and a
// conformance report endpoint that runs real checks rather than
// reporting a canned status.
package server

import (
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"nexthash256"
	"nexthash256/internal/conformance"
)

// Config holds the HTTP server's listen and TLS settings.
type Config struct {
	Addr         string
	TLSEnabled   bool
	TLSCertPath  string
	TLSKeyPath   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// HashRequest is the body of POST /api/v1/hash.
type HashRequest struct {
	MessageHex string `json:"message_hex"`
}

// HashResponse is the body of a successful hash response.
type HashResponse struct {
	DigestHex string `json:"digest_hex"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// HMACRequest is the body of POST /api/v1/hmac.
type HMACRequest struct {
	KeyHex     string `json:"key_hex"`
	MessageHex string `json:"message_hex"`
}

// HMACResponse is the body of a successful HMAC response.
type HMACResponse struct {
	MACHex    string `json:"mac_hex"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	BlockSize int    `json:"block_size"`
	DigestSize int   `json:"digest_size"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of any non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Timestamp string `json:"timestamp"`
}

// Server bundles the HTTP handlers with their shared dependencies.
type Server struct {
	rbac        *RBAC
	startedAt   time.Time
	auditLogger *log.Logger
}

// New returns a Server backed by rbac, logging audit events to
// auditLogger (may be log.Default()).
func New(rbac *RBAC, auditLogger *log.Logger) *Server {
	return &Server{rbac: rbac, startedAt: time.Now(), auditLogger: auditLogger}
}

func requestUser(r *http.Request) string {
	if u := r.Header.Get("X-User-ID"); u != "" {
		return u
	}
	return "anonymous"
}

func (s *Server) audit(event string, fields map[string]any) {
	b, _ := json.Marshal(fields)
	s.auditLogger.Printf("%s %s", event, b)
}

// HandleHash serves POST /api/v1/hash.
func (s *Server) HandleHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}

	userID := requestUser(r)
	if err := s.rbac.Authorize(userID, "compute_hash", PermComputeHash); err != nil {
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	}

	var req HashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	message, err := hex.DecodeString(req.MessageHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "message_hex must be valid hex")
		return
	}

	digest := nexthash256.Sum256(message)
	reqID := uuid.New().String()

	s.audit("HASH", map[string]any{"request_id": reqID, "message_size": len(message), "user_id": userID})

	respondJSON(w, http.StatusOK, HashResponse{
		DigestHex: hex.EncodeToString(digest[:]),
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleHMAC serves POST /api/v1/hmac.
func (s *Server) HandleHMAC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}

	userID := requestUser(r)
	if err := s.rbac.Authorize(userID, "compute_hmac", PermComputeHMAC); err != nil {
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	}

	var req HMACRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	key, err := hex.DecodeString(req.KeyHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "key_hex must be valid hex")
		return
	}
	message, err := hex.DecodeString(req.MessageHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "message_hex must be valid hex")
		return
	}

	mac := nexthash256.MAC(key, message)
	reqID := uuid.New().String()

	s.audit("HMAC", map[string]any{"request_id": reqID, "message_size": len(message), "user_id": userID})

	respondJSON(w, http.StatusOK, HMACResponse{
		MACHex:    hex.EncodeToString(mac[:]),
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleHealth serves GET /api/v1/health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.startedAt).String(),
		BlockSize:  nexthash256.BlockSize,
		DigestSize: nexthash256.Size,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// HandleConformance serves GET /api/v1/conformance/report, running the
// real conformance battery on every call.
func (s *Server) HandleConformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	report := conformance.Run(s.auditLogger)
	respondJSON(w, http.StatusOK, report)
}

// HandleMetrics serves GET /metrics in Prometheus text format.
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	uptime := time.Since(s.startedAt).Seconds()
	text := fmt.Sprintf(`# HELP nexthash256_uptime_seconds server uptime in seconds
# TYPE nexthash256_uptime_seconds gauge
nexthash256_uptime_seconds %.2f

# HELP nexthash256_block_size_bytes block size in bytes
# TYPE nexthash256_block_size_bytes gauge
nexthash256_block_size_bytes %d

# HELP nexthash256_digest_size_bytes digest size in bytes
# TYPE nexthash256_digest_size_bytes gauge
nexthash256_digest_size_bytes %d
`, uptime, nexthash256.BlockSize, nexthash256.Size)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:     code,
		Message:   message,
		Code:      statusCode,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// LoggingMiddleware logs method, path, and duration for each request.
func LoggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

// RecoveryMiddleware converts a panic in next into a 500 response
// instead of crashing the server.
func RecoveryMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Printf("panic recovered: %v", err)
				respondError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Mux builds the server's http.Handler, wiring every endpoint through
// the logging and recovery middleware.
func (s *Server) Mux(logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/hash", s.HandleHash)
	mux.HandleFunc("/api/v1/hmac", s.HandleHMAC)
	mux.HandleFunc("/api/v1/health", s.HandleHealth)
	mux.HandleFunc("/api/v1/conformance/report", s.HandleConformance)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	return RecoveryMiddleware(logger, LoggingMiddleware(logger, mux))
}

// ListenAndServe starts an http.Server with cfg's settings, serving
// handler. It blocks until the server stops.
func ListenAndServe(cfg Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if !cfg.TLSEnabled {
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCertPath, cfg.TLSKeyPath)
	if err != nil {
		return fmt.Errorf("server: loading TLS certificate: %w", err)
	}
	srv.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	err = srv.ListenAndServeTLS("", "")
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
