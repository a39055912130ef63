package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// Client stores FAQ records as points carrying a named dense vector and a
// named sparse vector, so one collection serves both retrieval paths.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexRecords(ctx context.Context, source string, records []domain.Record, vectors [][]float32) error {
	if len(records) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("records/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(records))
	for i, rec := range records {
		points = append(points, point{
			ID: uuid.NewString(),
			Vector: map[string]any{
				denseVectorName:  vectors[i],
				sparseVectorName: encodeSparseRecord(rec.Content, rec.Metadata.Question),
			},
			Payload: recordPayload(source, rec),
		})
	}

	reqBody := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPut, url, reqBody, nil, "upsert"); err != nil {
		return err
	}
	return nil
}

// Search is the plain dense top-K path.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Record, error) {
	points, err := c.queryPoints(ctx, map[string]any{
		"query":        queryVector,
		"using":        denseVectorName,
		"limit":        limit,
		"with_payload": true,
	}, "search")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(points))
	for _, p := range points {
		out = append(out, payloadToRecord(p.Payload))
	}
	return out, nil
}

// SearchWithVectors returns the candidate pool with stored dense vectors, so
// the caller can run diversity-aware selection locally.
func (c *Client) SearchWithVectors(ctx context.Context, queryVector []float32, limit int) ([]ports.ScoredPoint, error) {
	points, err := c.queryPoints(ctx, map[string]any{
		"query":        queryVector,
		"using":        denseVectorName,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  []string{denseVectorName},
	}, "search")
	if err != nil {
		return nil, err
	}

	out := make([]ports.ScoredPoint, 0, len(points))
	for _, p := range points {
		out = append(out, ports.ScoredPoint{
			Record: payloadToRecord(p.Payload),
			Vector: p.Vector[denseVectorName],
			Score:  p.Score,
		})
	}
	return out, nil
}

// GetRelevantRecords is the lexical path: the query is sparse-encoded and
// matched against the stored sparse vectors.
func (c *Client) GetRelevantRecords(ctx context.Context, query string, limit int) ([]domain.Record, error) {
	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	points, err := c.queryPoints(ctx, map[string]any{
		"query":        sparse,
		"using":        sparseVectorName,
		"limit":        limit,
		"with_payload": true,
	}, "lexical search")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(points))
	for _, p := range points {
		out = append(out, payloadToRecord(p.Payload))
	}
	return out, nil
}

type queryPoint struct {
	Score   float64              `json:"score"`
	Payload map[string]any       `json:"payload"`
	Vector  map[string][]float32 `json:"vector"`
}

func (c *Client) queryPoints(ctx context.Context, reqBody map[string]any, operation string) ([]queryPoint, error) {
	var queryResp struct {
		Result struct {
			Points []queryPoint `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &queryResp, operation); err != nil {
		return nil, err
	}
	return queryResp.Result.Points, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) do(ctx context.Context, method, url string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func recordPayload(source string, rec domain.Record) map[string]any {
	payload := map[string]any{
		"text":     rec.Content,
		"question": rec.Metadata.Question,
		"answer":   rec.Metadata.Answer,
		"category": rec.Metadata.Category,
		"row":      rec.Metadata.Row,
		"source":   rec.Metadata.Source,
	}
	if payload["source"] == "" {
		payload["source"] = source
	}
	for k, v := range rec.Metadata.Extra {
		payload["extra_"+k] = v
	}
	return payload
}

func payloadToRecord(payload map[string]any) domain.Record {
	var extra map[string]string
	for k := range payload {
		name, ok := strings.CutPrefix(k, "extra_")
		if !ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[name] = getStringPayload(payload, k)
	}

	return domain.Record{
		Content: getStringPayload(payload, "text"),
		Metadata: domain.RecordMetadata{
			Question: getStringPayload(payload, "question"),
			Answer:   getStringPayload(payload, "answer"),
			Category: getStringPayload(payload, "category"),
			Row:      getIntPayload(payload, "row"),
			Source:   getStringPayload(payload, "source"),
			Extra:    extra,
		},
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
