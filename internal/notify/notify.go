// Package notify mirrors keeper journal entries to outbound channels. A
// notifier failure is never allowed to reach the keeper.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/keeper"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack"
)

// Notifier delivers one message to an outbound channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, content string) error
}

// Slack posts to a fixed channel.
type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(botToken, channel string) *Slack {
	return &Slack{client: slack.New(botToken), channel: channel}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, content string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(content, false))
	if err != nil {
		return errors.Wrap(err, "failed to send Slack message")
	}
	slog.Debug("Slack message sent", "channel", s.channel)
	return nil
}

// Telegram sends to a fixed chat. The bot is initialized lazily on first
// send so a bad token degrades to a logged error, not a startup failure.
type Telegram struct {
	token  string
	chatID int64
	bot    *tgbotapi.BotAPI
}

func NewTelegram(token string, chatID int64) *Telegram {
	return &Telegram{token: token, chatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, content string) error {
	if t.bot == nil {
		bot, err := tgbotapi.NewBotAPI(t.token)
		if err != nil {
			return errors.Wrap(err, "failed to init telegram bot")
		}
		t.bot = bot
	}

	msg := tgbotapi.NewMessage(t.chatID, content)
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send Telegram message")
	}
	slog.Debug("Telegram message sent", "chat_id", t.chatID)
	return nil
}

// Null discards everything.
type Null struct{}

func (Null) Name() string                       { return "null" }
func (Null) Send(context.Context, string) error { return nil }

// Manager fans journal entries out to the configured notifiers. Info entries
// are suppressed; delivery errors are logged and swallowed.
type Manager struct {
	notifiers []Notifier
}

func NewManager(notifiers ...Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// Notify delivers one journal entry to every notifier.
func (m *Manager) Notify(ctx context.Context, entry keeper.Entry) {
	if entry.Kind == keeper.KindInfo {
		return
	}

	content := fmt.Sprintf("[%s] %s", entry.Kind, entry.Message)
	for _, n := range m.notifiers {
		if err := n.Send(ctx, content); err != nil {
			slog.Warn("Notifier delivery failed", "notifier", n.Name(), "error", err)
		}
	}
}
