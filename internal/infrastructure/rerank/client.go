package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
)

// Client scores (query, text) pairs against a cross-encoder serving the
// text-embeddings-inference rerank API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string) *Client {
	return NewWithOptions(baseURL, Options{})
}

func NewWithOptions(baseURL string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score returns one relevance score per text, in input order.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var results []rerankResult
	run := func(callCtx context.Context) error {
		return c.postJSON(callCtx, rerankRequest{Query: query, Texts: texts}, &results)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "rerank.score", run, classifyRerankError)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, err
	}

	if len(results) != len(texts) {
		return nil, fmt.Errorf("rerank: %d results for %d texts", len(results), len(texts))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	scores := make([]float64, len(texts))
	for i, res := range results {
		if res.Index != i {
			return nil, fmt.Errorf("rerank: missing score for text %d", i)
		}
		scores[i] = res.Score
	}
	return scores, nil
}

func (c *Client) postJSON(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			return fmt.Errorf("rerank status: %s", resp.Status)
		}
		return fmt.Errorf("rerank status: %s: %s", resp.Status, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}
