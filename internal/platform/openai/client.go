package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/envutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

// Client is the chat-completion client used by the assistant. The upstream is
// any OpenAI-compatible /v1/chat/completions endpoint; failures surface to the
// caller unretried.
type Client interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("AI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}

	baseURL := envutil.String("AI_BASE_URL", "https://api.openai.com")
	baseURL = strings.TrimRight(baseURL, "/")
	model := envutil.String("AI_MODEL", "gpt-4o-mini")

	transport := http.DefaultTransport
	// The completion endpoint often sits on an internal network with a
	// self-signed certificate; verification can be switched off for it only.
	if envutil.Bool("AI_TLS_SKIP_VERIFY", false) {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		log.Warn("TLS verification disabled for AI completion endpoint")
	}

	return &client{
		log:     log.With("client", "AIClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout:   envutil.Duration("AI_TIMEOUT", 60*time.Second),
			Transport: transport,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *client) Complete(ctx context.Context, system string, user string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("completion endpoint returned non-200", "status", resp.StatusCode)
		return "", fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// NewUnavailableClient is the wiring fallback for deployments without an AI
// key; every completion fails with a stable error the chat layer can report.
func NewUnavailableClient() Client {
	return unavailableClient{}
}

type unavailableClient struct{}

func (unavailableClient) Complete(ctx context.Context, system string, user string) (string, error) {
	return "", fmt.Errorf("ai client not configured")
}
