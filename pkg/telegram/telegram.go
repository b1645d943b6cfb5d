package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.telegram.org"

// Notifier delivers a text message. Delivery is best-effort; callers log failures.
type Notifier interface {
	Deliver(ctx context.Context, text string) error
}

// Options configures the bot client.
type Options struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Timeout  time.Duration
}

// New returns a bot client, or a ConsoleSink when the token or chat id is missing.
func New(opts Options, logger *zap.Logger) Notifier {
	if opts.BotToken == "" || opts.ChatID == "" {
		logger.Warn("telegram credentials missing, alerts will be written to the log only")
		return NewConsoleSink(logger)
	}
	return NewClient(opts)
}

// Client posts messages through the Bot API sendMessage method.
type Client struct {
	client *resty.Client
	token  string
	chatID string
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewClient(opts Options) *Client {
	base := strings.TrimSuffix(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// no retries: a lost alert is not resent
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{client: client, token: opts.BotToken, chatID: opts.ChatID}
}

// Deliver sends text to the configured chat. Any non-2xx answer is an error.
func (c *Client) Deliver(ctx context.Context, text string) error {
	var result apiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{ChatID: c.chatID, Text: text}).
		SetResult(&result).
		Post("/bot" + c.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if !result.OK {
		return fmt.Errorf("telegram send rejected: %s", result.Description)
	}
	return nil
}

// ConsoleSink writes alerts to the log and always succeeds.
type ConsoleSink struct {
	logger *zap.Logger
}

func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger}
}

func (s *ConsoleSink) Deliver(ctx context.Context, text string) error {
	s.logger.Info("alert", zap.String("message", text))
	return nil
}
