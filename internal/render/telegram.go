package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"notifyd/internal/config"
	"notifyd/internal/domain"
	"notifyd/internal/permanent"
)

// TelegramRenderer mirrors alerts into a Telegram chat. Message IDs are
// tracked per category so a category clear deletes its messages.
// Params: bot client, destination chat, and per-category message ids.
// Returns: remote presentation surface over the Telegram Bot API.
type TelegramRenderer struct {
	client  *tgbot.Bot
	chatID  any
	initErr error

	mu       sync.Mutex
	messages map[domain.Category][]int
}

// NewTelegramRenderer creates the Telegram surface.
// Params: Telegram settings from config.
// Returns: renderer; configuration errors surface on first Show.
func NewTelegramRenderer(cfg config.TelegramRenderConfig) *TelegramRenderer {
	renderer := &TelegramRenderer{
		chatID:   normalizeChatID(cfg.ChatID),
		messages: make(map[domain.Category][]int),
	}

	if strings.TrimSpace(cfg.BotToken) == "" {
		renderer.initErr = errors.New("telegram bot token is required")
		return renderer
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		renderer.initErr = errors.New("telegram chat_id is required")
		return renderer
	}

	options := []tgbot.Option{
		tgbot.WithSkipGetMe(),
	}
	if strings.TrimSpace(cfg.APIBase) != "" {
		options = append(options, tgbot.WithServerURL(strings.TrimRight(cfg.APIBase, "/")))
	}
	botClient, err := tgbot.New(cfg.BotToken, options...)
	if err != nil {
		renderer.initErr = fmt.Errorf("init telegram bot: %w", err)
		return renderer
	}
	renderer.client = botClient
	return renderer
}

// Name returns the renderer key for diagnostics.
// Params: none.
// Returns: "telegram".
func (r *TelegramRenderer) Name() string {
	return "telegram"
}

// Show sends one alert message and remembers its id for Clear.
// Params: resolved profile.
// Returns: permanent error on misconfiguration, transport error otherwise.
func (r *TelegramRenderer) Show(ctx context.Context, profile domain.DeliveryProfile) error {
	if r.initErr != nil {
		return permanent.Mark(r.initErr)
	}
	if r.client == nil {
		return permanent.Mark(errors.New("telegram client is not initialized"))
	}

	request := &tgbot.SendMessageParams{
		ChatID:    r.chatID,
		Text:      formatAlertMessage(profile),
		ParseMode: tgmodels.ParseModeHTML,
	}
	sent, err := r.client.SendMessage(ctx, request)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if sent == nil || sent.ID <= 0 {
		return errors.New("telegram send returned empty message id")
	}

	r.mu.Lock()
	r.messages[profile.Category] = append(r.messages[profile.Category], sent.ID)
	r.mu.Unlock()
	return nil
}

// Clear deletes the tracked messages of one category.
// Params: cleared category.
// Returns: first delete error; tracked ids are dropped regardless so a
// failed delete cannot wedge the category.
func (r *TelegramRenderer) Clear(ctx context.Context, category domain.Category) error {
	if r.initErr != nil || r.client == nil {
		return nil
	}

	r.mu.Lock()
	ids := r.messages[category]
	delete(r.messages, category)
	r.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		_, err := r.client.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
			ChatID:    r.chatID,
			MessageID: id,
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("telegram delete %d: %w", id, err)
		}
	}
	return firstErr
}

// ClearAll deletes tracked messages of every category.
// Params: none.
// Returns: first delete error.
func (r *TelegramRenderer) ClearAll(ctx context.Context) error {
	var firstErr error
	for _, category := range domain.Categories() {
		if err := r.Clear(ctx, category); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// formatAlertMessage builds the chat message body for one alert.
// Params: resolved profile.
// Returns: HTML-formatted two-line message.
func formatAlertMessage(profile domain.DeliveryProfile) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(profile.TitleText)
	b.WriteString("</b>\n")
	b.WriteString(profile.TickerText)
	if profile.BodyText != "" && profile.BodyText != profile.TickerText {
		b.WriteString("\n")
		b.WriteString(profile.BodyText)
	}
	return b.String()
}

// normalizeChatID converts numeric chat IDs to int64 and keeps
// non-numeric IDs as string.
// Params: raw chat id value.
// Returns: typed chat id for the bot client.
func normalizeChatID(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return parsed
	}
	return trimmed
}
