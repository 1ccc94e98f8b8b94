package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// JSONSchema requests strict structured output matching Schema.
type JSONSchema struct {
	Name   string
	Schema map[string]interface{}
}

type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	Schema      *JSONSchema
}

type OpenAICompatibleClient struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewOpenAICompatibleClient(cfg ChatConfig) *OpenAICompatibleClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAICompatibleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete runs one chat completion and returns the assistant text. When a
// schema is given but the provider rejects structured output, the request is
// retried once without it and the raw text is returned for the caller to
// interpret.
func (c *OpenAICompatibleClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.checkConfig(); err != nil {
		return "", err
	}
	body := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    req.Messages,
		"stream":      false,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Schema != nil {
		body["response_format"] = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   req.Schema.Name,
				"schema": req.Schema.Schema,
				"strict": true,
			},
		}
	}

	content, err := c.chatCompletion(ctx, body)
	if err != nil && req.Schema != nil && isUnsupportedResponseFormat(err) {
		delete(body, "response_format")
		return c.chatCompletion(ctx, body)
	}
	return content, err
}

// ExtractFileText sends a document to the model as a file part and asks for
// its text verbatim.
func (c *OpenAICompatibleClient) ExtractFileText(ctx context.Context, filename, mimeType string, data []byte, maxTokens int) (string, error) {
	if err := c.checkConfig(); err != nil {
		return "", err
	}
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	body := map[string]interface{}{
		"model":       c.cfg.Model,
		"stream":      false,
		"temperature": 0,
		"max_tokens":  maxTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": extractInstruction},
					{"type": "file", "file": map[string]string{"filename": filename, "file_data": dataURL}},
				},
			},
		},
	}
	return c.chatCompletion(ctx, body)
}

const extractInstruction = "Extract all text content from this document verbatim. " +
	"Return only the extracted text with no commentary, headings of your own, or formatting notes."

func (c *OpenAICompatibleClient) checkConfig() error {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" || c.cfg.Model == "" {
		return ErrNotConfigured
	}
	return nil
}

func (c *OpenAICompatibleClient) chatCompletion(ctx context.Context, reqBody map[string]interface{}) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", newUpstreamError(resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty llm choices")
	}
	msg := parsed.Choices[0].Message
	if msg.Content == "" && msg.Refusal != "" {
		return msg.Refusal, nil
	}
	return msg.Content, nil
}

func isUnsupportedResponseFormat(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(upstream.Body)
	return strings.Contains(body, "response_format") || strings.Contains(body, "json_schema")
}
