// Package telegram adapts the Telegram Bot API to the bot.Transport
// boundary: long-polled updates become commands and callbacks, outbound
// messages become Markdown texts with inline keyboards.
package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mnemolab/recall/internal/bot"
	"go.uber.org/zap"
)

const pollTimeoutSeconds = 30

var errMissingToken = errors.New("telegram: bot token is required")

// Handler consumes the inbound events produced by the poll loop.
type Handler interface {
	HandleCommand(ctx context.Context, command bot.Command)
	HandleCallback(ctx context.Context, callback bot.Callback)
}

// ClientConfig describes the Telegram client dependencies.
type ClientConfig struct {
	Token  string
	Logger *zap.Logger
}

// Client implements bot.Transport over the Telegram Bot API.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewClient connects to the Telegram Bot API with the given token.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errMissingToken
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Client{api: api, logger: logger}, nil
}

// Send posts a new message to the chat.
func (c *Client) Send(_ context.Context, chatID int64, message bot.Message) error {
	outbound := tgbotapi.NewMessage(chatID, message.Text)
	if message.Markdown {
		outbound.ParseMode = tgbotapi.ModeMarkdown
	}
	if keyboard, ok := inlineKeyboard(message.Buttons); ok {
		outbound.ReplyMarkup = keyboard
	}
	_, err := c.api.Send(outbound)
	return err
}

// Edit replaces the text and buttons of an existing message.
func (c *Client) Edit(_ context.Context, chatID int64, messageID int, message bot.Message) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, message.Text)
	if message.Markdown {
		edit.ParseMode = tgbotapi.ModeMarkdown
	}
	if keyboard, ok := inlineKeyboard(message.Buttons); ok {
		edit.ReplyMarkup = &keyboard
	}
	_, err := c.api.Send(edit)
	return err
}

// Poll runs the long-poll loop, translating updates into handler calls. It
// returns when the context is canceled.
func (c *Client) Poll(ctx context.Context, handler Handler) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeoutSeconds
	updates := c.api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		c.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.Message != nil && update.Message.IsCommand():
			c.dispatchCommand(ctx, handler, update.Message)
		case update.CallbackQuery != nil:
			c.dispatchCallback(ctx, handler, update.CallbackQuery)
		}
	}
}

func (c *Client) dispatchCommand(ctx context.Context, handler Handler, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	argText := strings.TrimSpace(message.CommandArguments())
	handler.HandleCommand(ctx, bot.Command{
		ChatID: message.Chat.ID,
		UserID: message.From.ID,
		Name:   message.Command(),
		Args:   strings.Fields(argText),
		Text:   argText,
	})
}

func (c *Client) dispatchCallback(ctx context.Context, handler Handler, query *tgbotapi.CallbackQuery) {
	// Ack first so the client stops showing a spinner even if handling
	// fails.
	if _, err := c.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		c.logger.Warn("callback ack failed", zap.Error(err))
	}
	if query.Message == nil || query.From == nil {
		return
	}
	handler.HandleCallback(ctx, bot.Callback{
		ChatID:    query.Message.Chat.ID,
		UserID:    query.From.ID,
		MessageID: query.Message.MessageID,
		Data:      query.Data,
	})
}

func inlineKeyboard(rows [][]bot.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	keyboardRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Data))
		}
		keyboardRows = append(keyboardRows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboardRows...), true
}
