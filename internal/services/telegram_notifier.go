package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studyplan/internal/models"
	"studyplan/internal/repositories"
)

// TelegramSender is the part of tgbotapi.BotAPI the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatLookup finds the chat an owner linked through the bot.
type ChatLookup interface {
	ChatID(ctx context.Context, ownerID string) (int64, error)
}

// TelegramNotifier forwards notifications to the chat linked to each owner.
// Statically configured chats win over linked ones; owners with neither are
// skipped.
type TelegramNotifier struct {
	bot    TelegramSender
	chats  map[string]int64
	linked ChatLookup
}

func NewTelegramNotifier(bot TelegramSender, chats map[string]int64, linked ChatLookup) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chats: chats, linked: linked}
}

const (
	// TelegramPollTimeout is the long-poll window, in seconds, for bot updates.
	TelegramPollTimeout = 30
	// telegramHTTPTimeout bounds every Bot API call and must outlast a poll.
	telegramHTTPTimeout = (TelegramPollTimeout + 10) * time.Second
)

// NewTelegramBot connects to the Bot API. An empty token disables Telegram.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	return newTelegramBot(token, tgbotapi.APIEndpoint)
}

func newTelegramBot(token, endpoint string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, nil
	}
	client := &http.Client{Timeout: telegramHTTPTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Printf("[tg][init] authorized as @%s", bot.Self.UserName)
	return bot, nil
}

func (t *TelegramNotifier) chatFor(ctx context.Context, ownerID string) int64 {
	if id := t.chats[ownerID]; id != 0 {
		return id
	}
	if t.linked == nil {
		return 0
	}
	id, err := t.linked.ChatID(ctx, ownerID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			log.Printf("[tg][lookup][err] owner=%s: %v", ownerID, err)
		}
		return 0
	}
	return id
}

func (t *TelegramNotifier) Notify(ctx context.Context, ownerID string, n models.Notification) {
	if t == nil || t.bot == nil {
		return
	}
	chatID := t.chatFor(ctx, ownerID)
	if chatID == 0 {
		log.Printf("[tg][skip] no chat linked for owner=%s", ownerID)
		return
	}
	icon := "✅"
	if n.Level == models.NotifyError {
		icon = "⚠️"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s <b>%s</b>", icon, html.EscapeString(n.Message)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] owner=%s chatID=%d: %v", ownerID, chatID, err)
	}
}
