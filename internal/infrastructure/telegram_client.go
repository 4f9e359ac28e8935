package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// TelegramAPIError is an error response from the Bot API
type TelegramAPIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *TelegramAPIError) Error() string {
	return fmt.Sprintf("telegram %s failed: %d %s", e.Method, e.Code, e.Description)
}

// telegramResponse is the Bot API response envelope
type telegramResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

// TelegramClient is a minimal Telegram Bot API client
type TelegramClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTelegramClient creates a new Bot API client
func NewTelegramClient(config *domain.TelegramConfig, logger *zap.Logger) (*TelegramClient, error) {
	if config.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token not configured")
	}

	timeout := config.RequestTimeout
	if timeout <= config.PollTimeout {
		timeout = config.PollTimeout + 15*time.Second
	}

	return &TelegramClient{
		baseURL:    strings.TrimRight(config.APIURL, "/"),
		token:      config.BotToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// call invokes a Bot API method and decodes its result into out
func (c *TelegramClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope telegramResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return &TelegramAPIError{Method: method, Code: resp.StatusCode, Description: "malformed response"}
	}

	if !envelope.OK {
		apiErr := &TelegramAPIError{
			Method:      method,
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
		}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// Delete removes a message from a chat, implementing domain.DeletionSink
func (c *TelegramClient) Delete(ctx context.Context, groupID string, messageID int64) error {
	params := map[string]interface{}{
		"chat_id":    groupID,
		"message_id": messageID,
	}
	if err := c.call(ctx, "deleteMessage", params, nil); err != nil {
		return classifyDeletionError(err)
	}
	return nil
}

// SendMessage sends a plain HTML message to a chat
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// GetUpdates long-polls for new message updates starting at offset
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]TelegramUpdate, error) {
	params := map[string]interface{}{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var updates []TelegramUpdate
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// deniedDescriptions are the 400 descriptions Telegram returns when the bot
// lacks the right to delete a message
var deniedDescriptions = []string{
	"not enough rights",
	"message can't be deleted",
	"need administrator rights",
	"chat_admin_required",
}

// classifyDeletionError maps Bot API failures onto the sink error kinds.
// 403 and rights-related 400s are permission problems; everything else,
// including a message that is already gone or a rejected token, is transient.
func classifyDeletionError(err error) error {
	var apiErr *TelegramAPIError
	if errors.As(err, &apiErr) && isPermissionDenied(apiErr) {
		return fmt.Errorf("%w: %v", domain.ErrDeletionPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrDeletionTransient, err)
}

func isPermissionDenied(apiErr *TelegramAPIError) bool {
	switch apiErr.Code {
	case http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		description := strings.ToLower(apiErr.Description)
		for _, d := range deniedDescriptions {
			if strings.Contains(description, d) {
				return true
			}
		}
	}
	return false
}
