package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/usecase"
)

type answererFake struct {
	answer string
	err    error
	calls  int
}

func (f *answererFake) AnswerQuestion(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *answererFake) DebugRetrieve(_ context.Context, query string) (*domain.RetrievalDiagnostics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RetrievalDiagnostics{Query: query, Canonical: query}, nil
}

type ingestorFake struct {
	upload *domain.CorpusUpload
	err    error
}

func (f *ingestorFake) Upload(_ context.Context, filename, _ string, body io.Reader) (*domain.CorpusUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	if f.upload != nil {
		return f.upload, nil
	}
	return &domain.CorpusUpload{ID: "up-1", Filename: filename, Status: domain.UploadStatusUploaded}, nil
}

type readerFake struct {
	uploads map[string]*domain.CorpusUpload
}

func (f *readerFake) GetByID(_ context.Context, id string) (*domain.CorpusUpload, error) {
	upload, ok := f.uploads[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrUploadNotFound, "get upload", fmt.Errorf("id %s", id))
	}
	return upload, nil
}

type transcriberFake struct {
	text string
	err  error
}

func (f *transcriberFake) Transcribe(_ context.Context, _ string, audio io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, audio); err != nil {
		return "", err
	}
	return f.text, f.err
}

func newTestRouter(t *testing.T, answerer *answererFake, cfg config.Config) *Router {
	t.Helper()
	signals := usecase.NewSignalExtractor(usecase.DefaultSignalRules())
	return NewRouter(
		answerer,
		&ingestorFake{},
		&readerFake{uploads: map[string]*domain.CorpusUpload{
			"up-1": {ID: "up-1", Filename: "faq.csv", Status: domain.UploadStatusReady, RowCount: 12},
		}},
		&transcriberFake{text: "when does the library open"},
		signals,
		nil,
		cfg,
	)
}

func postChat(t *testing.T, handler http.Handler, question string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeChat(t *testing.T, res *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var out chatResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	return out
}

func TestChatReturnsGroundedAnswer(t *testing.T) {
	answerer := &answererFake{answer: "The library opens at 8 AM."}
	handler := newTestRouter(t, answerer, config.Config{}).Handler()

	res := postChat(t, handler, "When does the library open?")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := decodeChat(t, res).Answer; got != "The library opens at 8 AM." {
		t.Fatalf("unexpected answer %q", got)
	}
	if answerer.calls != 1 {
		t.Fatalf("expected one pipeline call, got %d", answerer.calls)
	}
}

func TestChatGreetingShortCircuitsPipeline(t *testing.T) {
	answerer := &answererFake{answer: "should not be used"}
	handler := newTestRouter(t, answerer, config.Config{}).Handler()

	res := postChat(t, handler, "Hello!")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := decodeChat(t, res).Answer; got != domain.GreetingAnswer {
		t.Fatalf("expected greeting reply, got %q", got)
	}
	if answerer.calls != 0 {
		t.Fatalf("greeting must not reach the pipeline, got %d calls", answerer.calls)
	}
}

func TestChatPipelineFailureReturnsFixedSentence(t *testing.T) {
	pipelineErr := domain.WrapError(domain.ErrGeneration, "generate answer", errors.New("model unreachable"))
	handler := newTestRouter(t, &answererFake{err: pipelineErr}, config.Config{}).Handler()

	res := postChat(t, handler, "When does the library open?")
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if got := decodeChat(t, res).Answer; got != domain.FailureAnswer {
		t.Fatalf("expected fixed failure sentence, got %q", got)
	}
	if strings.Contains(res.Body.String(), "model unreachable") {
		t.Fatalf("error detail leaked to the caller: %s", res.Body.String())
	}
}

func TestChatTemporaryFailureMapsTo503(t *testing.T) {
	pipelineErr := domain.WrapError(domain.ErrTemporary, "generate answer", errors.New("circuit open"))
	handler := newTestRouter(t, &answererFake{err: pipelineErr}, config.Config{}).Handler()

	res := postChat(t, handler, "When does the library open?")
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	if got := decodeChat(t, res).Answer; got != domain.FailureAnswer {
		t.Fatalf("expected fixed failure sentence, got %q", got)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	res := postChat(t, handler, "   ")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDebugRetrieveReturnsDiagnostics(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	body := bytes.NewBufferString(`{"question":"Who is the director?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/debug/retrieve", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var diag domain.RetrievalDiagnostics
	if err := json.NewDecoder(res.Body).Decode(&diag); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if diag.Query != "Who is the director?" {
		t.Fatalf("unexpected diagnostics query %q", diag.Query)
	}
}

func TestUploadCorpusAccepted(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "faq.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("Question,Answer\nQ,A\n")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/corpus", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	var upload domain.CorpusUpload
	if err := json.NewDecoder(res.Body).Decode(&upload); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if upload.Filename != "faq.csv" {
		t.Fatalf("unexpected filename %q", upload.Filename)
	}
	if upload.Status != domain.UploadStatusUploaded {
		t.Fatalf("unexpected status %q", upload.Status)
	}
}

func TestUploadCorpusRequiresFile(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/corpus", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetCorpusStatus(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/corpus/up-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var upload domain.CorpusUpload
	if err := json.NewDecoder(res.Body).Decode(&upload); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if upload.Status != domain.UploadStatusReady || upload.RowCount != 12 {
		t.Fatalf("unexpected upload state: %+v", upload)
	}
}

func TestGetCorpusStatusUnknownIDReturns404(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/corpus/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestTranscribeReturnsText(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "question.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake audio payload")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/stt", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var out transcribeResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if out.Text != "when does the library open" {
		t.Fatalf("unexpected transcript %q", out.Text)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := newTestRouter(t, &answererFake{}, config.Config{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req2.Header.Set(requestIDHeader, "req-42")
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)

	if got := res2.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}
