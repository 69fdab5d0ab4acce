package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ggranum/fetherbrik/internal/application"
	"github.com/ggranum/fetherbrik/internal/bootstrap"
	"github.com/ggranum/fetherbrik/internal/config"
	"github.com/ggranum/fetherbrik/internal/storage"
)

func performRequest(t *testing.T, handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	b, base := newBootstrapper(t,
		[]string{"--env", "staging", "--adminPassword", "hunter2"},
		map[string]string{
			config.FileName + ".json5": `{
  httpPort: 8080,
  dbName: "main",
  corsOrigins: ["https://a.example"],
  requestLogging: false,
}`,
			bootstrap.VersionFile: "1.3.0",
		},
		func(o *bootstrap.Options) {
			o.Environ = []string{"HELLO_WORLD_RATE_LIMIT_RPS=0"}
		},
	)

	cfg, err := config.Load(b)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RateLimitRPS != 0 || cfg.AdminPassword != "hunter2" {
		t.Fatalf("unexpected configuration: %+v", cfg)
	}

	store := storage.NewFileStore(filepath.Join(base, "runtime"))
	app, err := application.New(cfg, zaptest.NewLogger(t), store)
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}
	handler := app.Handler()

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}
	var health struct {
		Env     string `json:"env"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Env != "staging" || health.Version != "1.3.0" {
		t.Fatalf("unexpected health %+v", health)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config", map[string]string{"Origin": "https://a.example"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example" {
		t.Fatalf("expected allowed origin to be echoed, got %q", got)
	}
	var effective struct {
		RunID    string            `json:"runId"`
		Settings map[string]string `json:"settings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&effective); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if effective.RunID != cfg.RunID || effective.Settings["dbName"] != "main" {
		t.Fatalf("unexpected effective configuration %+v", effective)
	}
	if effective.Settings["adminPassword"] != "********" {
		t.Fatalf("expected redacted password, got %q", effective.Settings["adminPassword"])
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/health", map[string]string{"Origin": "https://evil.example"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected unlisted origin to be refused")
	}

	snap, err := store.Latest()
	if err != nil {
		t.Fatalf("read snapshot file: %v", err)
	}
	if snap.RunID != cfg.RunID || snap.Env != "staging" || strings.Contains(string(snap.Body), "hunter2") {
		t.Fatalf("unexpected snapshot on disk: %+v", snap)
	}
	if store.Path() != filepath.Join(base, "runtime", storage.FileName) {
		t.Fatalf("unexpected snapshot path %s", store.Path())
	}
}
