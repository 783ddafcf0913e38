package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobmate/offer-watcher/internal/model"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts each new offer to the search's chat. Searches without a
// channel fall back to chatID.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram logs the bot in. It fails when the token is rejected.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, ev model.NewOfferEvent) error {
	chatID := ev.ChannelID
	if chatID == 0 {
		chatID = t.chatID
	}
	if chatID == 0 {
		return fmt.Errorf("telegram: no chat for search %d", ev.SearchID)
	}

	msg := tgbotapi.NewMessage(chatID, FormatOffer(ev))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatOffer renders an offer as a Telegram HTML message. The header
// mentions the search owner when known. Contract and work load lines are
// left out when unknown.
func FormatOffer(ev model.NewOfferEvent) string {
	o := ev.Offer
	esc := html.EscapeString

	var b strings.Builder
	if ev.UserID != 0 {
		fmt.Fprintf(&b, "<a href=\"tg://user?id=%d\">👤</a> ", ev.UserID)
	}
	fmt.Fprintf(&b, "🆕 <b>New offer!</b>\n")
	fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", esc(o.URL), esc(o.Title))
	fmt.Fprintf(&b, "💰 %s\n", esc(o.Price))
	fmt.Fprintf(&b, "📍 %s\n", esc(o.Location))
	if o.ContractType != model.NotAvailable && o.ContractType != "" {
		fmt.Fprintf(&b, "📝 %s\n", esc(o.ContractType))
	}
	if o.WorkLoad != model.NotAvailable && o.WorkLoad != "" {
		fmt.Fprintf(&b, "⏰ %s\n", esc(o.WorkLoad))
	}
	fmt.Fprintf(&b, "<i>Search: %s</i>", esc(ev.Query))
	return b.String()
}
