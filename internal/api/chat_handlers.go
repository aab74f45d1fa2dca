package api

import (
	"net/http"

	"promo-pulse/internal/ai"
	"promo-pulse/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Chat проксирует запрос к upstream API чат-комплишенов.
// Принимает либо массив messages, либо одиночный message с историей.
// При stream=true ответ отдается как server-sent events без буферизации.
func (h *Handler) Chat(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	messages, msgErr := parseMessages(payload)
	if msgErr != nil {
		h.respondError(c, msgErr)
		return
	}

	options := ai.GenerationOptions{}
	if temperature, ok := payload["temperature"].(float64); ok {
		options.Temperature = temperature
	}
	if maxTokens, ok := payload["max_tokens"].(float64); ok {
		options.MaxTokens = int(maxTokens)
	}

	stream, _ := payload["stream"].(bool)
	if stream {
		h.streamChat(c, messages, options)
		return
	}

	response, err := h.chatClient.GenerateResponse(c.Request.Context(), messages, options)
	if err != nil {
		h.metrics.RecordUpstream("chat", false)
		h.respondError(c, err)
		return
	}
	h.metrics.RecordUpstream("chat", true)

	c.JSON(http.StatusOK, gin.H{
		"reply": response.Content,
		"model": response.Model,
		"usage": response.Usage,
	})
}

// streamChat пропускает SSE-поток апстрима напрямую клиенту.
// После первого записанного байта статус уже отправлен, менять его нельзя.
func (h *Handler) streamChat(c *gin.Context, messages []ai.Message, options ai.GenerationOptions) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	if err := h.chatClient.StreamResponse(c.Request.Context(), messages, options, c.Writer); err != nil {
		h.metrics.RecordUpstream("chat", false)
		if !c.Writer.Written() {
			// Заголовки еще не отправлены: ошибка уходит обычным JSON ответом
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Cache-Control")
			c.Writer.Header().Del("Connection")
			h.respondError(c, err)
			return
		}
		h.logger.Error("поток чата оборвался после начала ответа", zap.Error(err))
		return
	}
	h.metrics.RecordUpstream("chat", true)
}

// parseMessages собирает историю диалога из тела запроса
func parseMessages(payload map[string]any) ([]ai.Message, *apperr.Error) {
	if rawMessages, ok := payload["messages"].([]any); ok {
		messages := make([]ai.Message, 0, len(rawMessages))
		for _, raw := range rawMessages {
			entry, ok := raw.(map[string]any)
			if !ok {
				return nil, apperr.Validation([]apperr.FieldError{
					{Field: "messages", Message: "must be an array of {role, content} objects"},
				})
			}
			role, _ := entry["role"].(string)
			content, _ := entry["content"].(string)
			if role == "" || content == "" {
				return nil, apperr.Validation([]apperr.FieldError{
					{Field: "messages", Message: "each message requires role and content"},
				})
			}
			messages = append(messages, ai.Message{Role: role, Content: content})
		}
		if len(messages) == 0 {
			return nil, apperr.Validation([]apperr.FieldError{
				{Field: "messages", Message: "must not be empty"},
			})
		}
		return messages, nil
	}

	message, _ := payload["message"].(string)
	if message == "" {
		return nil, apperr.Validation([]apperr.FieldError{
			{Field: "message", Message: "is required when messages is absent"},
		})
	}

	var messages []ai.Message
	if history, ok := payload["history"].([]any); ok {
		for _, raw := range history {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			role, _ := entry["role"].(string)
			content, _ := entry["content"].(string)
			if role != "" && content != "" {
				messages = append(messages, ai.Message{Role: role, Content: content})
			}
		}
	}
	messages = append(messages, ai.Message{Role: "user", Content: message})

	return messages, nil
}
