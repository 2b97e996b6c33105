package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/approvals"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/config"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/financeos/financeos/internal/metrics"
	"github.com/financeos/financeos/internal/modules"
	"github.com/financeos/financeos/internal/policy"
	"github.com/financeos/financeos/internal/report"
	"github.com/financeos/financeos/internal/version"
)

// ActionDispatcher submits an action through the governance pipeline.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, request actions.Request) (dispatch.Result, error)
}

// Deps are the services the gateway exposes.
type Deps struct {
	Policies   *policy.Store
	Registry   *modules.Registry
	Dispatcher ActionDispatcher
	Ledger     *audit.Ledger
	Reports    *report.Log
	Generator  *report.Generator
	Approvals  *approvals.Service
	Recorder   *metrics.Recorder
}

type Server struct {
	cfg        config.GatewayConfig
	deps       Deps
	httpServer *http.Server
}

func New(cfg config.GatewayConfig, deps Deps) *Server {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 18890
	}

	cfg.Host = host
	cfg.Port = port
	return &Server{
		cfg:  cfg,
		deps: deps,
	}
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

func (s *Server) Start() error {
	mux := NewHandler(s.cfg.Token, s.deps)
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("gateway listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// NewHandler builds the gateway routes. Read endpoints are open; every
// mutating endpoint requires the bearer token when one is configured.
func NewHandler(token string, deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"version":    version.Version,
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/policy", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, deps.Policies.Load())
		case http.MethodPut:
			if !authorize(w, r, token, requestID) {
				return
			}
			var state policy.State
			if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
				writeError(w, requestID, http.StatusBadRequest, "bad_request", "invalid json request")
				return
			}
			if err := deps.Policies.Update(state); err != nil {
				writeError(w, requestID, http.StatusConflict, "conflict", err.Error())
				return
			}
			writeJSON(w, http.StatusOK, deps.Policies.Load())
		default:
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		}
	})

	mux.HandleFunc("/policy/killswitch", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodPost {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !authorize(w, r, token, requestID) {
			return
		}
		state := deps.Policies.Load()
		state.KillSwitch = true
		if err := deps.Policies.Update(state); err != nil {
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, deps.Policies.Load())
	})

	mux.HandleFunc("/policy/reset", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodPost {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !authorize(w, r, token, requestID) {
			return
		}
		if err := deps.Policies.Reset(); err != nil {
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, deps.Policies.Load())
	})

	mux.HandleFunc("/modules", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		installed := deps.Registry.Snapshot()
		entries := make([]map[string]any, 0, len(modules.Catalog()))
		for _, manifest := range modules.Catalog() {
			entry := map[string]any{
				"manifest":  manifest,
				"installed": false,
			}
			if record, ok := installed[manifest.ID]; ok {
				entry["installed"] = true
				entry["enabled"] = record.Enabled
				entry["grantedPermissions"] = record.GrantedPermissions
			}
			entries = append(entries, entry)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"modules":    entries,
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/actions", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodPost {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !authorize(w, r, token, requestID) {
			return
		}

		var req struct {
			ModuleID string                `json:"moduleId"`
			Kind     string                `json:"kind"`
			Summary  string                `json:"summary"`
			Trade    *actions.TradeIntent  `json:"trade"`
			Notify   *actions.NotifyIntent `json:"notify"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, requestID, http.StatusBadRequest, "bad_request", "invalid json request")
			return
		}
		if strings.TrimSpace(req.ModuleID) == "" || strings.TrimSpace(req.Kind) == "" {
			writeError(w, requestID, http.StatusBadRequest, "bad_request", "moduleId and kind are required")
			return
		}

		request := actions.NewRequest(req.ModuleID, req.Kind, req.Summary)
		if req.Trade != nil {
			request = request.WithTrade(*req.Trade)
		}
		if req.Notify != nil {
			request = request.WithNotify(*req.Notify)
		}

		result, err := deps.Dispatcher.Dispatch(r.Context(), request)
		if err != nil {
			slog.Error("gateway dispatch failed", "request_id", requestID, "action_id", request.ID, "error", err)
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", "failed to dispatch action")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"actionId":   request.ID,
			"status":     result.Status,
			"reason":     result.Reason,
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/audit", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entries":    deps.Ledger.List(),
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/approvals", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		status := approvals.Status(strings.TrimSpace(r.URL.Query().Get("status")))
		writeJSON(w, http.StatusOK, map[string]any{
			"approvals":  deps.Approvals.List(status),
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/approvals/", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodPost {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !authorize(w, r, token, requestID) {
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/approvals/")
		id, verb, ok := strings.Cut(rest, "/")
		if !ok || id == "" || (verb != "approve" && verb != "reject") {
			writeError(w, requestID, http.StatusNotFound, "not_found", "unknown approvals route")
			return
		}

		var req struct {
			Note string `json:"note"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		var record approvals.Record
		var err error
		if verb == "approve" {
			record, err = deps.Approvals.Approve(id, req.Note)
		} else {
			record, err = deps.Approvals.Reject(id, req.Note)
		}
		if err != nil {
			writeError(w, requestID, http.StatusConflict, "conflict", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"reports":    deps.Reports.List(),
			"request_id": requestID,
		})
	})

	mux.HandleFunc("/reports/generate", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodPost {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !authorize(w, r, token, requestID) {
			return
		}
		generated, err := deps.Generator.Generate(r.Context())
		if err != nil {
			slog.Error("gateway report generation failed", "request_id", requestID, "error", err)
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", "failed to generate report")
			return
		}
		writeJSON(w, http.StatusOK, generated)
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, deps.Recorder.Snapshot())
	})

	return mux
}

func authorize(w http.ResponseWriter, r *http.Request, token, requestID string) bool {
	if strings.TrimSpace(token) == "" {
		return true
	}
	if !isAuthorized(r, token) {
		writeError(w, requestID, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
		return false
	}
	return true
}

func isAuthorized(r *http.Request, expected string) bool {
	got := strings.TrimSpace(r.Header.Get("Authorization"))
	if got == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(got, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(got, prefix))
	return token == expected
}

func getRequestID(r *http.Request) string {
	rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if rid != "" {
		return rid
	}
	return uuid.NewString()
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":       code,
		"message":    message,
		"request_id": requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
