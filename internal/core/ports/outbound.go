package ports

import (
	"context"
	"io"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// Embedder builds vectors for record content and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ScoredPoint is one dense search hit with its stored vector, so the caller
// can run diversity-aware selection over the candidate pool.
type ScoredPoint struct {
	Record domain.Record
	Vector []float32
	Score  float64
}

// VectorIndex is the dense retrieval backend. Search tolerates unknown
// queries and may return fewer than limit results without error.
type VectorIndex interface {
	IndexRecords(ctx context.Context, source string, records []domain.Record, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Record, error)
	SearchWithVectors(ctx context.Context, queryVector []float32, limit int) ([]ScoredPoint, error)
}

// SparseRetriever is the optional lexical retrieval backend.
type SparseRetriever interface {
	GetRelevantRecords(ctx context.Context, query string, limit int) ([]domain.Record, error)
}

// CrossEncoderScorer scores (query, text) pairs jointly. The returned slice
// has the same length and order as texts.
type CrossEncoderScorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// TextGenerator is the generation model. Generate may fail on transport
// errors; GenerateJSON constrains the model to a JSON payload.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// CorpusRepository persists and reads upload state.
type CorpusRepository interface {
	Create(ctx context.Context, upload *domain.CorpusUpload) error
	GetByID(ctx context.Context, id string) (*domain.CorpusUpload, error)
	UpdateStatus(ctx context.Context, id string, status domain.UploadStatus, errMessage string) error
	SaveRowCount(ctx context.Context, id string, rowCount int) error
}

// ObjectStorage stores uploaded corpus files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes corpus upload events.
type MessageQueue interface {
	PublishCorpusUploaded(ctx context.Context, uploadID string) error
	SubscribeCorpusUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// CorpusParser extracts FAQ rows from a stored corpus file.
type CorpusParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]domain.FAQRow, error)
}

// Chunker splits long answer text into indexable pieces.
type Chunker interface {
	Split(text string) []string
}

// Transcriber converts recorded speech into query text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
