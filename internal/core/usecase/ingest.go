package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// IngestCorpusUseCase accepts an uploaded FAQ file, persists it, and hands it
// to the worker via the queue. Parsing and indexing happen asynchronously.
type IngestCorpusUseCase struct {
	repo    ports.CorpusRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestCorpusUseCase(
	repo ports.CorpusRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestCorpusUseCase {
	return &IngestCorpusUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestCorpusUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.CorpusUpload, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	upload := &domain.CorpusUpload{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.UploadStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("create upload metadata: %w", err)
	}

	if err := uc.queue.PublishCorpusUploaded(ctx, upload.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return upload, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || strings.Trim(base, "._") == "" {
		return "corpus.bin"
	}
	return base
}
