package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/weatherbot/core/logger"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// ClientOptions configures NewClient.
type ClientOptions struct {
	Token string
	// APIURL overrides the Bot API base URL; empty selects the public endpoint.
	APIURL     string
	HTTPClient *http.Client
}

// Client talks to the Telegram Bot API through telebot without using its poller.
type Client struct {
	bot *tele.Bot
}

// NewClient builds an offline telebot instance; no request is made until the first call.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	client := opts.HTTPClient
	if client == nil {
		client = BuildHTTPClient(0)
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(opts.APIURL), "/"),
		Token:   opts.Token,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %s", redact(err.Error()))
	}
	return &Client{bot: bot}, nil
}

type getUpdatesResponse struct {
	Result []tele.Update `json:"result"`
}

// GetUpdates fetches updates starting at offset. An offset of zero is omitted from the request.
// timeout is the long-poll timeout in seconds; zero means a short poll.
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error) {
	params := map[string]any{
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		params["offset"] = offset
	}

	start := time.Now()
	data, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var resp getUpdatesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("telegram: decode getUpdates: %w", err)
	}
	out := make([]Update, 0, len(resp.Result))
	for _, u := range resp.Result {
		out = append(out, ParseUpdate(u))
	}
	if len(out) > 0 || logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.get_updates",
			slog.String("status", "ok"),
			slog.Int("offset", offset),
			slog.Int("batch", len(out)),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return out, nil
}

// SendMessage sends text with Markdown parse mode and an optional reply keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}
	start := time.Now()
	if _, err := c.bot.Send(tele.ChatID(chatID), text, opts); err != nil {
		return fmt.Errorf("telegram: sendMessage: %s", redact(err.Error()))
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.send",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.Bool("kb", markup != nil),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// call runs a raw Bot API method and returns early when ctx is done.
func (c *Client) call(ctx context.Context, method string, params map[string]any) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := c.bot.Raw(method, params)
		done <- result{data: data, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("telegram: %s: %s", method, redact(r.err.Error()))
		}
		return r.data, nil
	}
}

func redact(msg string) string {
	return tokenRe.ReplaceAllString(msg, "bot<redacted>")
}

// DeleteWebhook removes a configured webhook; getUpdates is rejected while one is set.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	_, err := c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": dropPending})
	return err
}

// SetCommands publishes the command menu shown by Telegram clients.
func (c *Client) SetCommands(ctx context.Context, cmds []tele.Command) error {
	_, err := c.call(ctx, "setMyCommands", map[string]any{"commands": cmds})
	return err
}
