package ingest_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"ingest-gateway/internal/bootstrap"
	"ingest-gateway/internal/ingest"
	"ingest-gateway/internal/shared/config"
	"ingest-gateway/internal/shared/storage/blob"
)

const testToken = "test-token"

func newTestApp(t *testing.T) (*bootstrap.App, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	cfg := config.Config{
		Port:             "0",
		Env:              "dev",
		DataDir:          dataDir,
		IngestToken:      testToken,
		CORSAllowOrigins: []string{"*"},
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app, dataDir
}

func multipartBody(t *testing.T, kind, meta, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if kind != "" {
		if err := writer.WriteField("kind", kind); err != nil {
			t.Fatalf("write kind: %v", err)
		}
	}
	if meta != "" {
		if err := writer.WriteField("meta", meta); err != nil {
			t.Fatalf("write meta: %v", err)
		}
	}
	if filename != "" {
		fw, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestIngestMultipartScenario(t *testing.T) {
	app, dataDir := newTestApp(t)

	body, contentType := multipartBody(t, "orders/import-new-tsv", `{"shopId":"acme"}`, "orders.tsv", "0123456789")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		OK   bool           `json:"ok"`
		Kind string         `json:"kind"`
		File string         `json:"file"`
		Meta map[string]any `json:"meta"`
		Size *int64         `json:"size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected ok response")
	}
	if result.Kind != "orders/import-new-tsv" {
		t.Fatalf("unexpected kind: %s", result.Kind)
	}
	if result.Size == nil || *result.Size != 10 {
		t.Fatalf("expected size 10, got %v", result.Size)
	}
	if result.Meta["shopId"] != "acme" {
		t.Fatalf("expected meta echoed back, got %v", result.Meta)
	}

	today := time.Now().UTC().Format("2006-01-02")
	wantFile := "acme/orders_new/" + today + "/orders.tsv"
	if result.File != wantFile {
		t.Fatalf("expected file %s, got %s", wantFile, result.File)
	}

	stored, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(result.File)))
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	if string(stored) != "0123456789" {
		t.Fatalf("unexpected stored content: %q", stored)
	}
}

func TestIngestQueryTokenAccepted(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "x", "", "f.tsv", "data")
	req := httptest.NewRequest(http.MethodPost, "/ingest?token="+testToken, body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestIngestInvalidToken(t *testing.T) {
	app, _ := newTestApp(t)

	// Payload is perfectly valid; the token decides.
	body, contentType := multipartBody(t, "orders/import-new-tsv", `{"shopId":"acme"}`, "orders.tsv", "data")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", "wrong")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	assertFailureBody(t, resp.Body.Bytes(), "unauthorized")
}

func TestIngestMissingKindBothModes(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "", "", "orders.tsv", "data")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("multipart: expected 400, got %d", resp.Code)
	}
	assertFailureBody(t, resp.Body.Bytes(), "kind required")

	reqJSON := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"data":1}`))
	reqJSON.Header.Set("Content-Type", "application/json")
	reqJSON.Header.Set("X-Access-Token", testToken)
	respJSON := httptest.NewRecorder()
	app.Router.ServeHTTP(respJSON, reqJSON)

	if respJSON.Code != http.StatusBadRequest {
		t.Fatalf("json: expected 400, got %d", respJSON.Code)
	}
	assertFailureBody(t, respJSON.Body.Bytes(), "kind required")
}

func TestIngestMissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "orders/import-new-tsv", "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	assertFailureBody(t, resp.Body.Bytes(), "file required")
}

func TestIngestMultipartTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := ingest.NewService(blob.New(afero.NewMemMapFs()), nil)
	handler := ingest.NewHandler(svc, testToken, nil)
	handler.MaxFileBytes = 1024

	router := gin.New()
	handler.RegisterRoutes(router.Group(""))

	body, contentType := multipartBody(t, "ads/spend-tsv", "", "spend.tsv", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", resp.Code, resp.Body.String())
	}
	assertFailureBody(t, resp.Body.Bytes(), "payload too large")
}

func TestIngestMultipartWithinCustomLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := ingest.NewService(blob.New(afero.NewMemMapFs()), nil)
	handler := ingest.NewHandler(svc, testToken, nil)
	handler.MaxFileBytes = 1 << 20

	router := gin.New()
	handler.RegisterRoutes(router.Group(""))

	body, contentType := multipartBody(t, "ads/spend-tsv", "", "spend.tsv", "small")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestIngestJSONMode(t *testing.T) {
	app, dataDir := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest",
		strings.NewReader(`{"kind":"export","data":{"a":1},"meta":{"shopId":"s1"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Token", testToken)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, hasSize := result["size"]; hasSize {
		t.Fatalf("size must be absent in json mode, got %v", result["size"])
	}
	file, _ := result["file"].(string)
	if !strings.HasPrefix(file, "s1/json/") || !strings.HasSuffix(file, ".json") {
		t.Fatalf("unexpected file path: %s", file)
	}

	stored, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(file)))
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	var parsed struct {
		Data map[string]any `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(stored, &parsed); err != nil {
		t.Fatalf("stored content is not JSON: %v", err)
	}
	if parsed.Data["a"] != float64(1) || parsed.Meta["shopId"] != "s1" {
		t.Fatalf("round trip mismatch: %s", stored)
	}
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.OK || body.Message != "not found" || body.Path != "/nope" {
		t.Fatalf("unexpected 404 body: %+v", body)
	}
}

func TestRootAndHealth(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestUnconfiguredTokenRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{
		Port:    "0",
		Env:     "dev",
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"kind":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Token", "")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestIngestOverwriteSameFilename(t *testing.T) {
	app, dataDir := newTestApp(t)

	send := func(content string) {
		body, contentType := multipartBody(t, "ads/spend-tsv", `{"shopId":"s1"}`, "spend.tsv", content)
		req := httptest.NewRequest(http.MethodPost, "/ingest", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Access-Token", testToken)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
	}

	send("first")
	send("second")

	today := time.Now().UTC().Format("2006-01-02")
	stored, err := os.ReadFile(filepath.Join(dataDir, "s1", "ads_spend", today, "spend.tsv"))
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	if string(stored) != "second" {
		t.Fatalf("expected last writer to win, got %q", stored)
	}
}

func assertFailureBody(t *testing.T, raw []byte, wantMessage string) {
	t.Helper()
	var body struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode failure body: %v", err)
	}
	if body.OK {
		t.Fatalf("expected ok=false")
	}
	if body.Message != wantMessage {
		t.Fatalf("expected message %q, got %q", wantMessage, body.Message)
	}
}
