package openai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/antonpme/CV-Optimizer/internal/llm"
	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	temperature    = 0.2
)

// Options configures a Client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: client, model: opts.Model}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// OptimizeCV asks the model for an optimized reference CV.
func (c *Client) OptimizeCV(ctx context.Context, input llm.OptimizeInput) (llm.OptimizeResult, llm.Usage, error) {
	raw, usage, err := c.complete(ctx, "optimize", llm.OptimizePrompt(input))
	if err != nil {
		return llm.OptimizeResult{}, usage, err
	}
	res, err := llm.ParseOptimizeResult(raw)
	return res, usage, err
}

// TailorCV asks the model for a CV tailored to one job description.
func (c *Client) TailorCV(ctx context.Context, input llm.TailorInput) (llm.TailorResult, llm.Usage, error) {
	raw, usage, err := c.complete(ctx, "tailor", llm.TailorPrompt(input))
	if err != nil {
		return llm.TailorResult{}, usage, err
	}
	res, err := llm.ParseTailorResult(raw)
	return res, usage, err
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

func (c *Client) complete(ctx context.Context, operation, userPrompt string) ([]byte, llm.Usage, error) {
	messages := []chatMessage{
		{Role: "system", Content: llm.SystemPrompt},
		{Role: "user", Content: userPrompt},
	}
	req := chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if !isGPT5(c.model) {
		temp := temperature
		req.Temperature = &temp
	}
	hash := hashMessages(messages)

	start := time.Now()
	body, err := c.post(ctx, req)
	if err != nil && req.Temperature != nil && isTemperatureUnsupported(err) {
		req.Temperature = nil
		body, err = c.post(ctx, req)
	}
	metrics.ObserveLLMDuration(operation, time.Since(start))
	if err != nil {
		return nil, llm.Usage{PromptHash: hash}, err
	}

	usage := llm.Usage{
		PromptTokens:     intField(body, "usage.prompt_tokens"),
		CompletionTokens: intField(body, "usage.completion_tokens"),
		PromptHash:       hash,
	}
	logUsage(c.model, operation, usage)

	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return nil, usage, fmt.Errorf("openai response empty content")
	}
	return []byte(content), usage, nil
}

type apiError struct {
	status  int
	message string
	kind    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("openai http status %d: %s (%s)", e.status, e.message, e.kind)
}

func (c *Client) post(ctx context.Context, req chatRequest) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}
	body := resp.Body()
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return nil, &apiError{
			status:  resp.StatusCode(),
			message: msg.String(),
			kind:    gjson.GetBytes(body, "error.type").String(),
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai http status %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	if !gjson.GetBytes(body, "choices.0").Exists() {
		return nil, fmt.Errorf("openai response missing choices")
	}
	return body, nil
}

func isTemperatureUnsupported(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func intField(body []byte, path string) *int {
	v := gjson.GetBytes(body, path)
	if !v.Exists() {
		return nil
	}
	n := int(v.Int())
	return &n
}

func hashMessages(messages []chatMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func logUsage(model, operation string, usage llm.Usage) {
	fields := map[string]any{
		"model":       model,
		"operation":   operation,
		"prompt_hash": usage.PromptHash,
	}
	if usage.PromptTokens != nil {
		fields["prompt_tokens"] = *usage.PromptTokens
	}
	if usage.CompletionTokens != nil {
		fields["completion_tokens"] = *usage.CompletionTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
