package ports

import (
	"context"
	"io"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract transport adapters call. It is the
// only wire surface of the core: a production answer path and an instrumented
// diagnostics path for offline evaluation.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, query string) (string, error)
	DebugRetrieve(ctx context.Context, query string) (*domain.RetrievalDiagnostics, error)
}

// CorpusIngestor is the inbound contract for FAQ file upload orchestration.
type CorpusIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.CorpusUpload, error)
}

// CorpusIndexer is the inbound contract for asynchronous corpus indexing.
type CorpusIndexer interface {
	IndexByID(ctx context.Context, uploadID string) error
}

// CorpusReader is the inbound read model for upload state.
type CorpusReader interface {
	GetByID(ctx context.Context, id string) (*domain.CorpusUpload, error)
}
