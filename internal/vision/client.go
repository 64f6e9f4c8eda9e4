package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/live-commentary/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Provider turns a frame plus chat context into model output.
type Provider interface {
	FetchRawResponse(ctx context.Context, req Request) (string, error)
	ParseResponse(text string) []string
	GenerateComment(ctx context.Context, req Request) ([]string, error)
}

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "vision-client"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func buildChatRequest(req Request) chatRequest {
	prompts := req.Prompts.WithDefaults()
	model := req.Settings.Model
	if model == "" {
		model = DefaultModel
	}

	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemInstruction(req, prompts)},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: buildUserText(req, prompts)},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + req.Image}},
			}},
		},
		MaxTokens:   MaxTokens,
		Temperature: req.Settings.Temperature,
		TopP:        req.Settings.TopP,
	}
}

// FetchRawResponse returns the first completion's text, or "" when the endpoint
// returned no completions.
func (c *Client) FetchRawResponse(ctx context.Context, req Request) (string, error) {
	if !req.Settings.HasEndpoint() {
		telemetry.ObserveProvider(telemetry.OutcomeMisconfigured, 0)
		return "", ErrMisconfiguredEndpoint
	}

	chatReq := buildChatRequest(req)
	ctx, span := telemetry.StartSpan(ctx, "vision.fetch",
		attribute.String("model", chatReq.Model),
		attribute.Bool("user_prompt", req.UserPrompt != ""),
	)
	defer span.End()

	start := time.Now()
	text, err := c.do(ctx, req, chatReq)
	telemetry.ObserveProvider(outcome(err), time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	telemetry.SetSpanSuccess(span)
	return text, nil
}

func (c *Client) do(ctx context.Context, req Request, chatReq chatRequest) (string, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", ErrConnectionFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Settings.RemoteURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Settings.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Settings.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("remote VLM request failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("remote VLM error", "status", resp.StatusCode, "body", string(data))
		return "", &RemoteError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(data),
		}
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrConnectionFailed, err)
	}

	return extractCompletion(payload)
}

func extractCompletion(payload any) (string, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", ErrInvalidResponseShape
	}
	choices, ok := obj["choices"].([]any)
	if !ok {
		return "", ErrInvalidResponseShape
	}
	if len(choices) == 0 {
		return "", nil
	}

	first, _ := choices[0].(map[string]any)
	message, _ := first["message"].(map[string]any)
	content, _ := message["content"].(string)
	return content, nil
}

// statusText prefers the reason phrase the server actually sent.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func outcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, ErrRemote):
		return telemetry.OutcomeRemoteError
	case errors.Is(err, ErrInvalidResponseShape):
		return telemetry.OutcomeInvalidShape
	default:
		return telemetry.OutcomeConnection
	}
}

func (c *Client) ParseResponse(text string) []string {
	return ParseComments(text)
}

func (c *Client) GenerateComment(ctx context.Context, req Request) ([]string, error) {
	text, err := c.FetchRawResponse(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.ParseResponse(text), nil
}
