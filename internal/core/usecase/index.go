package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// chunkAnswerOver is the answer length above which the splitter kicks in.
// Most FAQ answers fit in one record; mess menus and fee tables do not.
const chunkAnswerOver = 1200

// IndexCorpusUseCase runs on the worker. It parses a stored corpus file,
// builds question/answer records, embeds them, and writes dense points into
// the vector index.
type IndexCorpusUseCase struct {
	repo      ports.CorpusRepository
	storage   ports.ObjectStorage
	parser    ports.CorpusParser
	chunker   ports.Chunker
	augmenter *ParaphraseAugmenter
	embedder  ports.Embedder
	index     ports.VectorIndex
}

func NewIndexCorpusUseCase(
	repo ports.CorpusRepository,
	storage ports.ObjectStorage,
	parser ports.CorpusParser,
	chunker ports.Chunker,
	augmenter *ParaphraseAugmenter,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *IndexCorpusUseCase {
	return &IndexCorpusUseCase{
		repo:      repo,
		storage:   storage,
		parser:    parser,
		chunker:   chunker,
		augmenter: augmenter,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *IndexCorpusUseCase) IndexByID(ctx context.Context, uploadID string) error {
	if err := uc.markStatus(ctx, uploadID, domain.UploadStatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	rowCount, err := uc.indexPipeline(ctx, uploadID)
	if err != nil {
		if failErr := uc.markFailed(ctx, uploadID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveRowCount(ctx, uploadID, rowCount); err != nil {
		if failErr := uc.markFailed(ctx, uploadID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save row count: %w", err)
	}

	if err := uc.markStatus(ctx, uploadID, domain.UploadStatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *IndexCorpusUseCase) indexPipeline(ctx context.Context, uploadID string) (int, error) {
	upload, err := uc.repo.GetByID(ctx, uploadID)
	if err != nil {
		return 0, fmt.Errorf("fetch upload by id: %w", err)
	}

	rows, err := uc.parse(ctx, upload)
	if err != nil {
		return 0, err
	}

	records := uc.buildRecords(ctx, upload, rows)
	if len(records) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "build records", errors.New("corpus produced zero records"))
	}

	vectors, err := uc.embed(ctx, records)
	if err != nil {
		return 0, err
	}

	if err := uc.index.IndexRecords(ctx, upload.ID, records, vectors); err != nil {
		return 0, fmt.Errorf("index records in vector db: %w", err)
	}

	return len(rows), nil
}

func (uc *IndexCorpusUseCase) parse(ctx context.Context, upload *domain.CorpusUpload) ([]domain.FAQRow, error) {
	f, err := uc.storage.Open(ctx, upload.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored corpus: %w", err)
	}
	defer f.Close()

	rows, err := uc.parser.Parse(ctx, upload.Filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse corpus", errors.New("corpus contains no usable rows"))
	}
	return rows, nil
}

// buildRecords turns FAQ rows into indexable records. Each row becomes one
// record per question paraphrase, and answers past chunkAnswerOver are split
// into several records sharing the row's metadata.
func (uc *IndexCorpusUseCase) buildRecords(ctx context.Context, upload *domain.CorpusUpload, rows []domain.FAQRow) []domain.Record {
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		questions := []string{row.Question}
		if uc.augmenter != nil {
			questions = uc.augmenter.Expand(ctx, row.Question)
		}

		answers := []string{row.Answer}
		if uc.chunker != nil && len(row.Answer) > chunkAnswerOver {
			if chunks := uc.chunker.Split(row.Answer); len(chunks) > 0 {
				answers = chunks
			}
		}

		for _, q := range questions {
			for _, a := range answers {
				records = append(records, domain.Record{
					Content: fmt.Sprintf("Q: %s\nA: %s", q, a),
					Metadata: domain.RecordMetadata{
						Question: q,
						Answer:   row.Answer,
						Category: row.Category,
						Row:      row.Row,
						Source:   upload.Filename,
						Extra:    row.Extra,
					},
				})
			}
		}
	}
	return records
}

func (uc *IndexCorpusUseCase) embed(ctx context.Context, records []domain.Record) ([][]float32, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed records: %w", err)
	}
	if len(vectors) != len(records) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed records",
			fmt.Errorf("vectors/records mismatch: %d/%d", len(vectors), len(records)),
		)
	}
	return vectors, nil
}

func (uc *IndexCorpusUseCase) markStatus(ctx context.Context, uploadID string, status domain.UploadStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, uploadID, status, errMessage)
}

func (uc *IndexCorpusUseCase) markFailed(ctx context.Context, uploadID string, indexErr error) error {
	if indexErr == nil {
		return nil
	}
	return uc.markStatus(ctx, uploadID, domain.UploadStatusFailed, indexErr.Error())
}
