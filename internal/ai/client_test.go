package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"promo-pulse/internal/apperr"
	"promo-pulse/internal/config"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.ChatConfig{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Model:    "test-model",
		SiteURL:  "https://example.com",
		SiteName: "Example",
	}, zap.NewNop())
}

func TestGenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("ожидался путь /chat/completions, получен %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("ожидался заголовок Authorization, получен %q", auth)
		}
		if referer := r.Header.Get("HTTP-Referer"); referer != "https://example.com" {
			t.Errorf("ожидался заголовок HTTP-Referer, получен %q", referer)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("некорректный JSON запроса: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("ожидалась модель test-model, получена %s", req.Model)
		}
		if req.Stream {
			t.Error("буферизованный запрос не должен включать stream")
		}

		json.NewEncoder(w).Encode(chatResponse{
			Model: "test-model",
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "Hello!"}},
			},
			Usage: chatUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	response, err := client.GenerateResponse(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}}, GenerationOptions{})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if response.Content != "Hello!" {
		t.Errorf("ожидался контент 'Hello!', получен %q", response.Content)
	}
	if response.Usage.TotalTokens != 7 {
		t.Errorf("ожидалось 7 токенов, получено %d", response.Usage.TotalTokens)
	}
}

func TestGenerateResponseUpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{
			name:       "429 передается как есть",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"rate limited"}}`,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "402 передается как есть",
			status:     http.StatusPaymentRequired,
			body:       `{"error":{"message":"insufficient credits"}}`,
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:       "500 без тела ошибки",
			status:     http.StatusInternalServerError,
			body:       `boom`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			_, err := client.GenerateResponse(context.Background(),
				[]Message{{Role: "user", Content: "Hi"}}, GenerationOptions{})

			appErr := apperr.From(err)
			if appErr == nil || appErr.Kind != apperr.KindUpstream {
				t.Fatalf("ожидался KindUpstream, получена ошибка: %v", err)
			}
			if appErr.UpstreamStatus != tt.wantStatus {
				t.Errorf("ожидался статус %d, получен %d", tt.wantStatus, appErr.UpstreamStatus)
			}
		})
	}
}

func TestGenerateResponseEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Model: "test-model"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GenerateResponse(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}}, GenerationOptions{})

	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindUpstream {
		t.Fatalf("ожидался KindUpstream для пустого ответа, получена ошибка: %v", err)
	}
}

func TestStreamResponse(t *testing.T) {
	chunks := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: [DONE]\n\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("потоковый запрос должен включать stream")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(chunks))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var buf bytes.Buffer
	err := client.StreamResponse(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}}, GenerationOptions{}, &buf)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if buf.String() != chunks {
		t.Errorf("поток должен передаваться как есть, получено %q", buf.String())
	}
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)

	_, err := client.GenerateResponse(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}}, GenerationOptions{})

	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindTransient {
		t.Fatalf("ожидался KindTransient, получена ошибка: %v", err)
	}
}
