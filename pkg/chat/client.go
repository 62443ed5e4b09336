package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wizdomai/pkg/domain"
)

// Client calls the chat proxy endpoint over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a proxy error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a proxy client. The 30s timeout bounds a hung
// upstream call so the pipeline can always conclude its turn.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type askRequest struct {
	Question            string                `json:"question"`
	ConversationHistory []domain.HistoryEntry `json:"conversationHistory,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error,omitempty"`
}

// Ask sends a question plus prior history and returns the proxy's answer.
func (c *Client) Ask(ctx context.Context, question string, history []domain.HistoryEntry) (string, error) {
	payload := askRequest{Question: question, ConversationHistory: history}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	var body askResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode < 400 {
		return "", fmt.Errorf("proxy decode: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := body.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	return body.Answer, nil
}
