package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ggranum/fetherbrik/internal/sources"
	"github.com/ggranum/fetherbrik/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const json5ContentType = "application/json5"

// ServiceInfo describes the running process.
type ServiceInfo struct {
	AppName string
	Env     string
	Version string
	RunID   string
}

// Handler serves health, configuration and greeting endpoints.
type Handler struct {
	info    ServiceInfo
	storage storage.Store

	clock     func() time.Time
	startedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(info ServiceInfo, store storage.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		info:    info,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	now := h.clock()
	resp := healthResponse{
		Status:        "ok",
		App:           h.info.AppName,
		Env:           h.info.Env,
		Version:       h.info.Version,
		Timestamp:     now,
		UptimeSeconds: int64(now.Sub(h.startedAt).Seconds()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap, ok := h.latestSnapshot(w)
	if !ok {
		return
	}
	settings, err := sources.ParseJSON5(snap.Body)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := configResponse{
		RunID:    snap.RunID,
		Env:      snap.Env,
		Version:  snap.Version,
		SavedAt:  snap.SavedAt,
		Settings: settings,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetRawConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap, ok := h.latestSnapshot(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", json5ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Body)
}

func (h *Handler) handleHelloWorld(w http.ResponseWriter, r *http.Request) {
	resp := helloResponse{
		Message:   "Hello, World!",
		Env:       h.info.Env,
		RequestID: requestIDFromContext(r.Context()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) latestSnapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snap, err := h.storage.Latest()
	if errors.Is(err, storage.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, "Not found", err.Error(),
			"the effective configuration is saved when the server starts")
		return storage.Snapshot{}, false
	}
	if err != nil {
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snap, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status        string    `json:"status"`
	App           string    `json:"app,omitempty"`
	Env           string    `json:"env"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
}

type configResponse struct {
	RunID    string            `json:"runId"`
	Env      string            `json:"env"`
	Version  string            `json:"version"`
	SavedAt  time.Time         `json:"savedAt"`
	Settings map[string]string `json:"settings"`
}

type helloResponse struct {
	Message   string `json:"message"`
	Env       string `json:"env"`
	RequestID string `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
