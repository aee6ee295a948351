package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studyplan/internal/models"
	"studyplan/internal/repositories"
	"studyplan/internal/urgency"
	"studyplan/internal/utils"
)

const (
	linkCodeTTL     = 30 * time.Minute
	digestMaxTasks  = 10
	linkHelpMessage = "Send <code>/link &lt;code&gt;</code> with the code from the planner to receive notifications here."
)

// TelegramLinker binds owners to Telegram chats with one-time codes.
type TelegramLinker struct {
	links repositories.TelegramLinkRepository
	tasks repositories.TaskRepository
	bot   TelegramSender
	now   func() time.Time
}

func NewTelegramLinker(links repositories.TelegramLinkRepository, tasks repositories.TaskRepository, bot TelegramSender) *TelegramLinker {
	return &TelegramLinker{links: links, tasks: tasks, bot: bot, now: time.Now}
}

// RequestLink issues a code the owner sends to the bot.
func (l *TelegramLinker) RequestLink(ctx context.Context, ownerID string) (*repositories.TelegramLink, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	code, err := utils.NewLinkCode()
	if err != nil {
		return nil, fmt.Errorf("link code: %w", err)
	}
	link, err := l.links.Create(ctx, ownerID, code, linkCodeTTL)
	if err != nil {
		log.Printf("[tg][link][err] owner=%s: %v", ownerID, err)
		return nil, err
	}
	log.Printf("[tg][link][ok] owner=%s expires=%s", ownerID, link.ExpiresAt.Format(time.RFC3339))
	return link, nil
}

// Listen handles bot updates until ctx is done or updates is closed.
func (l *TelegramLinker) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Message == nil || u.Message.Chat == nil {
				continue
			}
			l.HandleMessage(ctx, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

// HandleMessage answers one chat message. "/link <code>" and
// "/start <code>" consume the code; anything else gets the help text.
func (l *TelegramLinker) HandleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	log.Printf("[tg][in] chatID=%d text=%q", chatID, text)

	cmd, arg := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, arg = text[:i], strings.TrimSpace(text[i+1:])
	}
	// commands in groups arrive as /link@botname
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}

	switch {
	case (cmd == "/link" || cmd == "/start") && arg != "":
		l.link(ctx, chatID, arg)
	default:
		l.reply(chatID, linkHelpMessage)
	}
}

func (l *TelegramLinker) link(ctx context.Context, chatID int64, raw string) {
	code, ok := utils.NormalizeLinkCode(raw)
	if !ok {
		l.reply(chatID, fmt.Sprintf("That does not look like a link code. It has %d hex characters.", utils.LinkCodeLength))
		return
	}
	link, err := l.links.UseByCode(ctx, code)
	if err != nil {
		log.Printf("[tg][use][err] chatID=%d: %v", chatID, err)
		l.reply(chatID, "This code is invalid or has expired. Request a new one in the planner.")
		return
	}
	if err := l.links.SaveChat(ctx, link.OwnerID, chatID); err != nil {
		log.Printf("[tg][save][err] owner=%s chatID=%d: %v", link.OwnerID, chatID, err)
		l.reply(chatID, "Could not link this chat, please try again later.")
		return
	}
	log.Printf("[tg][linked] owner=%s chatID=%d", link.OwnerID, chatID)
	l.reply(chatID, "Linked. Task and exam notifications will arrive here.")
	l.sendDigest(ctx, chatID, link.OwnerID)
}

func (l *TelegramLinker) sendDigest(ctx context.Context, chatID int64, ownerID string) {
	if l.tasks == nil {
		return
	}
	pending, err := l.tasks.ListPending(ctx, ownerID)
	if err != nil {
		log.Printf("[tg][digest][err] owner=%s: %v", ownerID, err)
		return
	}
	if len(pending) == 0 {
		l.reply(chatID, "No pending tasks. 👍")
		return
	}
	l.reply(chatID, Digest(pending, models.DateOf(l.now())))
}

// Digest lists up to ten pending tasks with their urgency label.
func Digest(pending []models.Task, today models.Date) string {
	var b strings.Builder
	b.WriteString("📝 <b>Pending tasks</b>\n")
	shown := pending
	if len(shown) > digestMaxTasks {
		shown = shown[:digestMaxTasks]
	}
	for _, t := range shown {
		c := urgency.ForTask(t, today)
		b.WriteString("• " + html.EscapeString(t.Name))
		if t.Subject != "" {
			b.WriteString(" (" + html.EscapeString(t.Subject) + ")")
		}
		b.WriteString(" - " + t.Deadline.String() + ", " + c.Label + "\n")
	}
	if rest := len(pending) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "…and %d more\n", rest)
	}
	return b.String()
}

func (l *TelegramLinker) reply(chatID int64, text string) {
	if l.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := l.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", chatID, err)
	}
}
