package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"promo-pulse/internal/apperr"
	"promo-pulse/internal/config"

	"go.uber.org/zap"
)

// minQueryLength — запросы короче не отправляются провайдеру
const minQueryLength = 3

// emptyFeatureCollection — ответ для коротких запросов без обращения к провайдеру
var emptyFeatureCollection = json.RawMessage(`{"type":"FeatureCollection","features":[]}`)

// Client представляет клиент провайдера прямого геокодинга
type Client struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент геокодинга
func NewClient(cfg config.GeoConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limit:   cfg.Limit,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Forward выполняет прямой геокодинг произвольного текста.
// Запрос короче трех символов сразу возвращает пустой список объектов,
// провайдер не вызывается. Ответ провайдера передается как есть.
func (c *Client) Forward(ctx context.Context, query string) (json.RawMessage, error) {
	if len(query) < minQueryLength {
		c.logger.Debug("короткий геозапрос, провайдер не вызывается",
			zap.String("query", query))
		return emptyFeatureCollection, nil
	}

	requestURL := fmt.Sprintf("%s/%s.json?access_token=%s&limit=%d",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.apiKey), c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transient("geocoding provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа провайдера: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ошибка провайдера геокодинга",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(body)))
		return nil, apperr.Upstream(
			fmt.Sprintf("geocoding provider returned status %d", resp.StatusCode),
			resp.StatusCode, nil)
	}

	c.logger.Debug("получен ответ провайдера геокодинга",
		zap.String("query", query),
		zap.Int("body_length", len(body)))

	return json.RawMessage(body), nil
}
