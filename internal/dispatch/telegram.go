package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"fermmon/internal/structures"
)

var ErrTelegramNotConfigured = errors.New("telegram bot token is not configured")

// TelegramNotifier posts alerts through the Bot API sendMessage method. It also
// answers bot commands in the chat they came from.
type TelegramNotifier struct {
	apiURL string
	token  string
	chatID string
	client *http.Client
}

func NewTelegramNotifier(conf structures.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		apiURL: strings.TrimRight(conf.ApiURL, "/"),
		token:  conf.BotToken,
		chatID: conf.ChatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

type telegramRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramBot builds the client the webhook replies through. It exists
// whether or not alert delivery to Telegram is enabled.
func NewTelegramBot(conf *structures.Config) *TelegramNotifier {
	return NewTelegramNotifier(conf.Telegram)
}

// Configured reports whether a bot token is set.
func (t *TelegramNotifier) Configured() bool {
	return t.token != ""
}

func (t *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	return t.send(ctx, t.chatID, msg.Text)
}

// Reply sends an HTML text to chatID.
func (t *TelegramNotifier) Reply(ctx context.Context, chatID string, text string) error {
	if !t.Configured() {
		return ErrTelegramNotConfigured
	}
	return t.send(ctx, chatID, text)
}

func (t *TelegramNotifier) send(ctx context.Context, chatID string, text string) error {
	body, err := json.Marshal(telegramRequest{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}

	var out telegramResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.Ok {
		return fmt.Errorf("telegram rejected message (status %d): %s", resp.StatusCode, out.Description)
	}
	return nil
}

func (t *TelegramNotifier) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
