package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"herald/internal/config"
)

type telegramNotifier struct {
	bot    *tele.Bot
	chatID tele.ChatID
}

func newTelegram(cfg *config.Config) (*telegramNotifier, error) {
	if cfg.Notify.TelegramChatID == 0 {
		return nil, errors.New("telegram chat id is required when a token is set")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  strings.TrimSpace(cfg.Notify.TelegramToken),
		Client: newHTTPClient(cfg.NotifyTimeout()),
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &telegramNotifier{
		bot:    bot,
		chatID: tele.ChatID(cfg.Notify.TelegramChatID),
	}, nil
}

func (t *telegramNotifier) Name() string { return "telegram" }

// Send posts the message body as Markdown. Alert messages carry their own
// emphasis, so the title is only prepended when the body does not already
// lead with it.
func (t *telegramNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := msg.Body
	if title := strings.TrimSpace(msg.Title); title != "" && !strings.HasPrefix(text, title) {
		text = "*" + title + "*\n" + text
	}
	if _, err := t.bot.Send(t.chatID, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
