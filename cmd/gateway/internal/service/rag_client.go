package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/config"
)

// RagQueryRequest is the body posted to the retrieval service.
type RagQueryRequest struct {
	Question  string `json:"question"`
	MaxLength int    `json:"max_length"`
}

// RagQueryResponse carries the retrieval outcome. Transport failures are
// folded into Success=false so callers handle exactly one shape.
type RagQueryResponse struct {
	Answer      string `json:"answer"`
	Success     bool   `json:"success"`
	ChunksFound int    `json:"chunks_found"`
	Error       string `json:"error,omitempty"`
}

// RagClient queries the knowledge-retrieval backend over HTTP. The timeout
// is generous: the backend may take tens of seconds and this client only
// ever runs on the async pipeline, never on the USSD reply path.
type RagClient struct {
	baseURL       string
	queryEndpoint string
	maxLength     int
	httpClient    *http.Client
}

func NewRagClient(cfg *config.RagConfig) *RagClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 140
	}
	return &RagClient{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		queryEndpoint: cfg.QueryEndpoint,
		maxLength:     maxLength,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query asks the retrieval service one question. It never returns an
// error: anything that goes wrong becomes an unsuccessful response.
func (c *RagClient) Query(ctx context.Context, question string) RagQueryResponse {
	reqBody := RagQueryRequest{
		Question:  question,
		MaxLength: c.maxLength,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return failedResponse(fmt.Errorf("marshal rag request: %w", err))
	}

	endpoint := c.baseURL + c.queryEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return failedResponse(fmt.Errorf("build rag request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failedResponse(fmt.Errorf("call rag service: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return failedResponse(fmt.Errorf("rag service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out RagQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return failedResponse(fmt.Errorf("decode rag response: %w", err))
	}
	return out
}

func failedResponse(err error) RagQueryResponse {
	log.Printf("Error calling RAG service: %v", err)
	return RagQueryResponse{
		Answer:  "Sorry, I am having trouble processing your request. Please try again.",
		Success: false,
		Error:   err.Error(),
	}
}
