package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/usecase"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	answerer    ports.QuestionAnswerer
	ingestor    ports.CorpusIngestor
	reader      ports.CorpusReader
	transcriber ports.Transcriber
	signals     *usecase.SignalExtractor
	metrics     *metrics.HTTPServerMetrics
	cfg         config.Config
}

func NewRouter(
	answerer ports.QuestionAnswerer,
	ingestor ports.CorpusIngestor,
	reader ports.CorpusReader,
	transcriber ports.Transcriber,
	signals *usecase.SignalExtractor,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		answerer:    answerer,
		ingestor:    ingestor,
		reader:      reader,
		transcriber: transcriber,
		signals:     signals,
		metrics:     serverMetrics,
		cfg:         cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chat)
	mux.HandleFunc("/v1/debug/retrieve", rt.debugRetrieve)
	mux.HandleFunc("/v1/corpus", rt.uploadCorpus)
	mux.HandleFunc("/v1/corpus/", rt.getCorpusByID)
	mux.HandleFunc("/v1/stt", rt.transcribe)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIMaxInFlightWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()

	// Small talk never reaches the retrieval pipeline.
	if rt.signals != nil && rt.signals.IsGreeting(question) {
		rt.recordChat("greeting", start)
		writeJSON(w, http.StatusOK, chatResponse{Answer: domain.GreetingAnswer})
		return
	}

	answer, err := rt.answerer.AnswerQuestion(r.Context(), question)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			rt.recordChat("invalid", start)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
			return
		}
		slog.Error("chat_pipeline_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		// Callers always get one of the fixed sentences, never error detail.
		rt.recordChat("failure", start)
		writeJSON(w, mapErrorToHTTPStatus(err), chatResponse{Answer: domain.FailureAnswer})
		return
	}

	outcome := "answered"
	if answer == domain.RefusalAnswer {
		outcome = "refusal"
	}
	rt.recordChat(outcome, start)
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

func (rt *Router) recordChat(outcome string, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordChatOutcome(serviceName, outcome, time.Since(start))
}

func (rt *Router) debugRetrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	diag, err := rt.answerer.DebugRetrieve(r.Context(), req.Question)
	if err != nil {
		slog.Error("debug_retrieve_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "retrieval diagnostics failed"})
		return
	}
	writeJSON(w, http.StatusOK, diag)
}

func (rt *Router) uploadCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	upload, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		slog.Error("corpus_upload_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", fileHeader.Filename,
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "corpus upload failed"})
		return
	}

	writeJSON(w, http.StatusAccepted, upload)
}

func (rt *Router) getCorpusByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/corpus/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "upload id is required"})
		return
	}

	upload, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "upload not found"})
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (rt *Router) transcribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.transcriber == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "speech transcription is not configured"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	text, err := rt.transcriber.Transcribe(r.Context(), fileHeader.Filename, file)
	if err != nil {
		slog.Error("transcription_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", fileHeader.Filename,
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "transcription failed"})
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
