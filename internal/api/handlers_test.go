package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docnotes/internal/config"
	"docnotes/internal/models"
	"docnotes/internal/uploads"
)

type fakeAsker struct {
	answer    string
	err       error
	calls     int
	questions []string
	docs      []*models.DocumentRef
	contents  [][]byte
	deadline  bool
}

func (f *fakeAsker) Run(ctx context.Context, question string, doc *models.DocumentRef) (string, error) {
	f.calls++
	f.questions = append(f.questions, question)
	f.docs = append(f.docs, doc)
	_, f.deadline = ctx.Deadline()
	if doc != nil {
		data, _ := os.ReadFile(doc.Path)
		f.contents = append(f.contents, data)
	}
	return f.answer, f.err
}

func TestAskWithPDFUpload(t *testing.T) {
	asker := &fakeAsker{answer: "summary saved"}
	router, dir := newTestServer(t, asker)

	payload := []byte("%PDF-1.4\x00\x01binary\r\n")
	rec := postMultipart(t, router, "/ask", map[string]string{"user_question": "summarize"}, "report.pdf", payload)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Question    string  `json:"question"`
		PDFFilename *string `json:"pdf_filename"`
		Answer      string  `json:"answer"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Question != "summarize" || body.Answer != "summary saved" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.PDFFilename == nil || *body.PDFFilename != "report.pdf" {
		t.Fatalf("expected pdf_filename report.pdf, got %v", body.PDFFilename)
	}
	if asker.calls != 1 || asker.docs[0] == nil {
		t.Fatalf("orchestrator should receive the document")
	}
	if asker.docs[0].Path != filepath.Join(dir, "report.pdf") {
		t.Fatalf("unexpected document path %s", asker.docs[0].Path)
	}
	if !bytes.Equal(asker.contents[0], payload) {
		t.Fatalf("upload bytes not preserved")
	}
	if !asker.deadline {
		t.Fatalf("orchestrator should run under the request timeout")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestAskWithoutFile(t *testing.T) {
	asker := &fakeAsker{answer: "42"}
	router, _ := newTestServer(t, asker)

	rec := postMultipart(t, router, "/ask", map[string]string{"user_question": "meaning?"}, "", nil)
	assertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"pdf_filename":null`) {
		t.Fatalf("pdf_filename should be null: %s", rec.Body.String())
	}
	if asker.docs[0] != nil {
		t.Fatalf("no document expected")
	}
}

func TestAskRejectsNonPDF(t *testing.T) {
	asker := &fakeAsker{answer: "unused"}
	router, dir := newTestServer(t, asker)

	for _, name := range []string{"notes.txt", "report.PDF", "pdf"} {
		rec := postMultipart(t, router, "/ask", map[string]string{"user_question": "q"}, name, []byte("data"))
		assertStatus(t, rec, http.StatusBadRequest)
		var body models.ErrorResponse
		decodeJSON(t, rec.Body.Bytes(), &body)
		if body.Error == "" {
			t.Fatalf("expected error message for %s", name)
		}
	}
	if asker.calls != 0 {
		t.Fatalf("orchestrator must not run for invalid uploads")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("nothing should be written for invalid uploads, found %d files", len(entries))
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	asker := &fakeAsker{}
	router, _ := newTestServer(t, asker)
	rec := postMultipart(t, router, "/ask", map[string]string{"user_question": ""}, "", nil)
	assertStatus(t, rec, http.StatusBadRequest)
	if asker.calls != 0 {
		t.Fatalf("orchestrator must not run without a question")
	}
}

func TestAskOrchestratorFailure(t *testing.T) {
	asker := &fakeAsker{err: errors.New("worker exited")}
	router, _ := newTestServer(t, asker)
	rec := postMultipart(t, router, "/ask", map[string]string{"user_question": "q"}, "", nil)
	assertStatus(t, rec, http.StatusInternalServerError)
	var body models.ErrorResponse
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Error != "processing failed: worker exited" {
		t.Fatalf("unexpected error body %q", body.Error)
	}
}

func TestAskSimple(t *testing.T) {
	asker := &fakeAsker{answer: "hello back"}
	router, _ := newTestServer(t, asker)

	rec := doRequest(router, http.MethodGet, "/", nil)
	assertStatus(t, rec, http.StatusOK)
	var body models.SimpleAnswer
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Answer != PromptForInput || asker.calls != 0 {
		t.Fatalf("empty question should short-circuit, got %q after %d calls", body.Answer, asker.calls)
	}

	rec = doRequest(router, http.MethodGet, "/?user_question=hello", nil)
	assertStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Answer != "hello back" || asker.questions[0] != "hello" {
		t.Fatalf("unexpected answer %q", body.Answer)
	}

	asker.err = errors.New("model unavailable")
	rec = doRequest(router, http.MethodGet, "/?user_question=hello", nil)
	assertStatus(t, rec, http.StatusInternalServerError)
}

func TestHealthAndRequestID(t *testing.T) {
	router, _ := newTestServer(t, &fakeAsker{})
	rec := doRequest(router, http.MethodGet, "/health", map[string]string{RequestIDHeader: "abc-123"})
	assertStatus(t, rec, http.StatusOK)
	var body models.Health
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Status != "healthy" {
		t.Fatalf("unexpected health status %q", body.Status)
	}
	if rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id should be echoed")
	}
}

func TestStaticFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write static file: %v", err)
	}
	store, err := uploads.NewStore(t.TempDir(), false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	handler := NewHandler(&fakeAsker{}, store, config.BasicConfig{StaticDir: staticDir})
	router := gin.New()
	handler.RegisterRoutes(router)

	rec := doRequest(router, http.MethodGet, "/static/app.js", nil)
	assertStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "console.log(1)" {
		t.Fatalf("unexpected static body %q", rec.Body.String())
	}
}

func newTestServer(t *testing.T, asker Asker) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := uploads.NewStore(dir, false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	handler := NewHandler(asker, store, config.BasicConfig{RequestTimeout: time.Minute})
	router := gin.New()
	handler.RegisterRoutes(router)
	return router, dir
}

func postMultipart(t *testing.T, router *gin.Engine, path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("pdf_file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}
