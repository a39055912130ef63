package domain

import "time"

// Record is the immutable unit of knowledge the retrieval pipeline works on.
// Records are produced once at ingestion and never mutated afterwards.
type Record struct {
	Content  string         `json:"content"`
	Metadata RecordMetadata `json:"metadata"`
}

// RecordMetadata carries the known corpus fields plus an extension map for
// anything else a source row may have contained (e.g. an email column).
type RecordMetadata struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Category string            `json:"category"`
	Row      int               `json:"row"`
	Source   string            `json:"source"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// ExtraField returns a value from the extension map, empty when absent.
func (m RecordMetadata) ExtraField(key string) string {
	if m.Extra == nil {
		return ""
	}
	return m.Extra[key]
}

// FAQRow is one parsed corpus row before it becomes an indexed Record.
type FAQRow struct {
	Row      int
	Category string
	Question string
	Answer   string
	Extra    map[string]string
}

type UploadStatus string

const (
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusReady      UploadStatus = "ready"
	UploadStatusFailed     UploadStatus = "failed"
)

// CorpusUpload tracks one uploaded FAQ file through the indexing pipeline.
type CorpusUpload struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	StoragePath string       `json:"storage_path"`
	Status      UploadStatus `json:"status"`
	RowCount    int          `json:"row_count,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
