package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// defaultRetryAfter is the backoff used when a flood-control response
// omits the retry_after hint.
const defaultRetryAfter = 5 * time.Second

// Telegram sends messages through the Telegram Bot API. Only the single
// sendMessage operation is used; command handling is not this service's
// concern.
type Telegram struct {
	apiURL string
	token  string
	chatID string
	client *http.Client
	logger *zap.Logger
}

func NewTelegram(apiURL, token, chatID string, logger *zap.Logger) *Telegram {
	return &Telegram{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
	Result json.RawMessage `json:"result"`
}

// Send posts one HTML-formatted message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
		"disable_notification":     true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if api.OK {
		return nil
	}
	if api.ErrorCode == http.StatusTooManyRequests {
		// Flood-control responses normally carry retry_after; without the
		// hint the error is still retryable, not permanent.
		retryAfter := defaultRetryAfter
		if api.Parameters != nil {
			retryAfter = time.Duration(api.Parameters.RetryAfter) * time.Second
		}
		return &RateLimitedError{RetryAfter: retryAfter}
	}
	return &APIError{Code: api.ErrorCode, Description: api.Description}
}

// CheckRecipient verifies the configured chat is reachable. Run once at
// startup; a failure here usually means a wrong chat id or token.
func (t *Telegram) CheckRecipient(ctx context.Context) error {
	endpoint := t.endpoint("getChat") + "?chat_id=" + url.QueryEscape(t.chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("get chat: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !api.OK {
		return &APIError{Code: api.ErrorCode, Description: api.Description}
	}
	t.logger.Info("notification chat reachable", zap.String("chat_id", t.chatID))
	return nil
}

func (t *Telegram) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiURL, t.token, method)
}
