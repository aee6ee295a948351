package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	linksCollection = "telegram_links"
	chatsCollection = "telegram_chats"
)

// TelegramLink is a one-time code that binds an owner to a Telegram chat.
type TelegramLink struct {
	Code      string    `db:"code" json:"code"`
	OwnerID   string    `db:"owner_id" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

type TelegramLinkRepository interface {
	Create(ctx context.Context, ownerID, code string, ttl time.Duration) (*TelegramLink, error)
	// UseByCode consumes an unused, unexpired code. Anything else is ErrNotFound.
	UseByCode(ctx context.Context, code string) (*TelegramLink, error)
	SaveChat(ctx context.Context, ownerID string, chatID int64) error
	ChatID(ctx context.Context, ownerID string) (int64, error)
}

type telegramLinkRepository struct {
	db *sqlx.DB
	settings
}

func NewTelegramLinkRepository(db *sqlx.DB, opts ...Option) TelegramLinkRepository {
	return &telegramLinkRepository{db: db, settings: newSettings(opts)}
}

func (r *telegramLinkRepository) Create(ctx context.Context, ownerID, code string, ttl time.Duration) (*TelegramLink, error) {
	now := r.timestamp()
	link := &TelegramLink{
		Code:      code,
		OwnerID:   ownerID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	query := `
		INSERT INTO telegram_links (code, owner_id, expires_at, used, created_at)
		VALUES (:code, :owner_id, :expires_at, :used, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return nil, storeErr("create", linksCollection, "", err)
	}
	return link, nil
}

func (r *telegramLinkRepository) UseByCode(ctx context.Context, code string) (*TelegramLink, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeErr("use", linksCollection, code, err)
	}
	defer tx.Rollback()

	var l TelegramLink
	query := tx.Rebind(`SELECT code, owner_id, expires_at, used, created_at FROM telegram_links WHERE code = ?`)
	if err := tx.GetContext(ctx, &l, query, code); err != nil {
		return nil, storeErr("use", linksCollection, code, err)
	}
	if l.Used || !r.timestamp().Before(l.ExpiresAt) {
		return nil, storeErr("use", linksCollection, code, ErrNotFound)
	}

	// the used = false guard makes a concurrent second use affect no rows
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE telegram_links SET used = ? WHERE code = ? AND used = ?`), true, code, false)
	if err != nil {
		return nil, storeErr("use", linksCollection, code, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, storeErr("use", linksCollection, code, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("use", linksCollection, code, err)
	}
	l.Used = true
	return &l, nil
}

// SaveChat links ownerID to chatID, replacing an earlier link.
func (r *telegramLinkRepository) SaveChat(ctx context.Context, ownerID string, chatID int64) error {
	query := r.db.Rebind(`
		INSERT INTO telegram_chats (owner_id, chat_id, linked_at) VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET chat_id = excluded.chat_id, linked_at = excluded.linked_at`)
	if _, err := r.db.ExecContext(ctx, query, ownerID, chatID, r.timestamp()); err != nil {
		return storeErr("save", chatsCollection, ownerID, err)
	}
	return nil
}

func (r *telegramLinkRepository) ChatID(ctx context.Context, ownerID string) (int64, error) {
	var chatID int64
	query := r.db.Rebind(`SELECT chat_id FROM telegram_chats WHERE owner_id = ?`)
	if err := r.db.GetContext(ctx, &chatID, query, ownerID); err != nil {
		return 0, storeErr("get", chatsCollection, ownerID, err)
	}
	return chatID, nil
}
