package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "question.wav" {
			t.Fatalf("unexpected filename %s", header.Filename)
		}
		_, _ = w.Write([]byte(`{"text":" who is the hod of cse "}`))
	}))
	defer server.Close()

	text, err := New(server.URL).Transcribe(context.Background(), "question.wav", strings.NewReader("fake audio"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "who is the hod of cse" {
		t.Fatalf("expected trimmed transcript, got %q", text)
	}
}

func TestTranscribeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no model loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).Transcribe(context.Background(), "a.wav", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "no model loaded") {
		t.Fatalf("expected error with body, got %v", err)
	}
}
