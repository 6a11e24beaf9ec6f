package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vascintake/vascintake/internal/config"
	"github.com/vascintake/vascintake/internal/domain/coding"
	"github.com/vascintake/vascintake/internal/platform/db"
	"github.com/vascintake/vascintake/internal/platform/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Env:            "test",
		LogLevel:       "info",
		CatalogSource:  config.CatalogBuiltin,
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		BodyLimit:      "256K",
		MetricsEnabled: true,
	}
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWithConfig(t, testConfig())
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	metrics := telemetry.NewProvider(telemetry.Config{Enabled: cfg.MetricsEnabled, ServiceVersion: version})
	svc := coding.NewService(nil, nil, metrics, zerolog.Nop())
	return newServer(cfg, zerolog.Nop(), svc, metrics, nil)
}

// =========== Server ===========

func TestServer_Health(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != version {
		t.Errorf("unexpected body %v", body)
	}
}

func TestServer_NoDBHealthWithoutPool(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a pool, got %d", rec.Code)
	}
}

func TestServer_SuggestionsEndToEnd(t *testing.T) {
	e := newTestServer(t)
	body := `{"conditions":["pad"],"answers":{"leg_pain_walking":{"checked":true},"pain_location":{"text":"right calf"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coding/suggestions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"I70.211"`) {
		t.Errorf("expected I70.211 in response, got %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_ScoringRoute(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scoring/pad", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_FHIRLookup(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	target := "/fhir/CodeSystem/$lookup?system=http://www.ama-assn.org/go/cpt&code=93880"
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Metrics(t *testing.T) {
	e := newTestServer(t)

	// One request so the duration histogram has a sample.
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request_duration_seconds") {
		t.Error("expected request duration metric in exposition")
	}
}

func TestServer_OpenAPI(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, p := range []string{"/api/v1/coding/suggestions", "/api/v1/scoring/{condition}", "/fhir/CodeSystem/$lookup", "/metrics"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("expected %s in the OpenAPI document", p)
		}
	}
}

func TestServer_RateLimitSharedAcrossGroups(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	e := newTestServerWithConfig(t, cfg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conditions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	target := "/fhir/CodeSystem/$lookup?system=http://www.ama-assn.org/go/cpt&code=93880"
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected the FHIR group to share the exhausted budget, got %d", rec.Code)
	}
}

// =========== CLI helpers ===========

func TestParseAnswers(t *testing.T) {
	answers, err := parseAnswers(`{"pain_location":{"text":"left calf"}}`, []string{"leg_pain_walking", " ", "pain_location"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answers.Checked("leg_pain_walking") {
		t.Error("expected leg_pain_walking to be checked")
	}
	if got := answers.Text("pain_location"); got != "left calf" {
		t.Errorf("expected text to survive the checked merge, got %q", got)
	}
	if !answers.Checked("pain_location") {
		t.Error("expected pain_location to be checked")
	}
	if len(answers) != 2 {
		t.Errorf("expected 2 answers, got %d", len(answers))
	}
}

func TestParseAnswers_Empty(t *testing.T) {
	answers, err := parseAnswers("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answers == nil || len(answers) != 0 {
		t.Errorf("expected empty non-nil answers, got %v", answers)
	}
}

func TestParseAnswers_InvalidJSON(t *testing.T) {
	if _, err := parseAnswers("{not json", nil); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestWriteRVUTable(t *testing.T) {
	var buf bytes.Buffer
	cat := coding.BuiltinCatalog()
	writeRVUTable(&buf, cat, []string{"99214", "93880"})

	out := buf.String()
	if !strings.HasPrefix(out, "CODE") {
		t.Errorf("expected header row, got %q", out)
	}
	if !strings.Contains(out, "99214") || !strings.Contains(out, "93880") {
		t.Errorf("expected both codes listed, got %q", out)
	}
	want := coding.NewEngine(cat).CalculateRVU([]string{"99214", "93880"})
	total := fmt.Sprintf("TOTAL  %.2f", want)
	if !strings.Contains(out, total) {
		t.Errorf("expected %q, got %q", total, out)
	}
}

func TestRVUCommand_ActiveCatalog(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "builtin")
	t.Setenv("DATABASE_URL", "")

	cmd := rvuCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"93925", "37224"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "TOTAL  16.94") {
		t.Errorf("expected total 16.94, got %q", buf.String())
	}
}

func TestRVUCommand_HonoursCatalogSource(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "")

	cmd := rvuCmd()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"93925"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected the postgres catalog source to require DATABASE_URL")
	}
}

func TestWriteCatalogList(t *testing.T) {
	svc := coding.NewService(nil, nil, nil, zerolog.Nop())

	var buf bytes.Buffer
	writeCatalogList(&buf, svc, "cpt", "")
	if !strings.Contains(buf.String(), "93880") {
		t.Errorf("expected 93880 in CPT listing, got %q", buf.String())
	}

	buf.Reset()
	writeCatalogList(&buf, svc, "icd10", "")
	if !strings.Contains(buf.String(), "I70.211") {
		t.Errorf("expected I70.211 in ICD-10 listing, got %q", buf.String())
	}
}

func TestWriteMigrationStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	writeMigrationStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "catalog", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "audit", Applied: false},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "applied") || !strings.Contains(lines[2], "2024-03-01 12:00:00") {
		t.Errorf("unexpected applied row %q", lines[2])
	}
	if !strings.Contains(lines[3], "pending") {
		t.Errorf("unexpected pending row %q", lines[3])
	}
}
