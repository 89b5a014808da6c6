package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts one message per new job to a single chat.
type Telegram struct {
	token  string
	chatID int64
	log    *slog.Logger

	once   sync.Once
	bot    botSender
	botErr error
}

func NewTelegram(cfg config.TelegramConfig, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.Default()
	}
	return &Telegram{token: cfg.Token, chatID: cfg.ChatID, log: log}
}

func (t *Telegram) Name() string { return "telegram" }

// client logs in on first use; NewBotAPI makes a network call.
func (t *Telegram) client() (botSender, error) {
	t.once.Do(func() {
		if t.bot != nil {
			return
		}
		if t.token == "" {
			t.botErr = errors.New("telegram token is empty")
			return
		}
		bot, err := tgbotapi.NewBotAPI(t.token)
		if err != nil {
			t.botErr = fmt.Errorf("failed to init telegram bot: %w", err)
			return
		}
		t.bot = bot
	})
	return t.bot, t.botErr
}

func (t *Telegram) Send(ctx context.Context, b Batch) error {
	if len(b.New) == 0 {
		return nil
	}
	bot, err := t.client()
	if err != nil {
		return err
	}

	var errs []error
	for _, j := range b.New {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, jobMessage(j))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := bot.Send(msg); err != nil {
			t.log.Warn("telegram send failed", "run_id", b.RunID, "company", j.Company, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func jobMessage(j domain.JobRecord) string {
	return fmt.Sprintf(
		"🔥 <b>%s</b>\n"+
			"🏢 %s\n"+
			"📍 %s\n"+
			"🕒 %s ago\n"+
			"🔗 <a href=\"%s\">Apply Now</a>",
		html.EscapeString(j.Role),
		html.EscapeString(j.Company),
		html.EscapeString(j.Location),
		html.EscapeString(j.AgeToken),
		html.EscapeString(scrape.ApplicationURL(j.ApplicationRef)),
	)
}
