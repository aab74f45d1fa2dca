package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"promo-pulse/internal/apperr"
	"promo-pulse/internal/config"

	"go.uber.org/zap"
)

// Client реализует ChatClient поверх OpenRouter-совместимого API
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	siteURL    string
	siteName   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент чат-комплишенов
func NewClient(cfg config.ChatConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		siteURL:  cfg.SiteURL,
		siteName: cfg.SiteName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GenerateResponse генерирует буферизованный ответ на основе сообщений
func (c *Client) GenerateResponse(ctx context.Context, messages []Message, options GenerationOptions) (*Response, error) {
	resp, err := c.send(ctx, messages, options, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.upstreamError(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("ошибка десериализации ответа: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, apperr.Upstream("empty completion from upstream", resp.StatusCode, nil)
	}

	content := chatResp.Choices[0].Message.Content

	c.logger.Info("получен ответ от upstream API",
		zap.String("model", chatResp.Model),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("content_length", len(content)))

	return &Response{
		Content: content,
		Model:   chatResp.Model,
		Usage: Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// StreamResponse пропускает потоковый ответ апстрима в w как есть.
// Каждый прочитанный фрагмент сразу сбрасывается, если w поддерживает Flush.
func (c *Client) StreamResponse(ctx context.Context, messages []Message, options GenerationOptions, w io.Writer) error {
	resp, err := c.send(ctx, messages, options, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return c.upstreamError(resp.StatusCode, body)
	}

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("ошибка записи потока клиенту: %w", writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("ошибка чтения потока апстрима: %w", readErr)
		}
	}
}

// send формирует и отправляет запрос к upstream API
func (c *Client) send(ctx context.Context, messages []Message, options GenerationOptions, stream bool) (*http.Response, error) {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	request := chatRequest{
		Model:    c.model,
		Messages: chatMessages,
		Stream:   stream,
	}
	if options.Temperature > 0 {
		request.Temperature = &options.Temperature
	}
	if options.MaxTokens > 0 {
		request.MaxTokens = &options.MaxTokens
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	c.logger.Debug("отправляем запрос к upstream API",
		zap.String("model", request.Model),
		zap.Int("messages_count", len(messages)),
		zap.Bool("stream", stream))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transient("upstream chat API unreachable", err)
	}

	return resp, nil
}

// upstreamError преобразует не-200 ответ апстрима в классифицированную ошибку
func (c *Client) upstreamError(status int, body []byte) error {
	c.logger.Error("ошибка upstream API",
		zap.Int("status_code", status),
		zap.String("response_body", string(body)))

	var chatErr chatError
	if err := json.Unmarshal(body, &chatErr); err == nil && chatErr.Error.Message != "" {
		return apperr.Upstream(chatErr.Error.Message, status, nil)
	}
	return apperr.Upstream(fmt.Sprintf("upstream chat API returned status %d", status), status, nil)
}
