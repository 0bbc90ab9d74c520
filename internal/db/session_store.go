package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/v7mdd/MoodleMate/internal/models"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`
	ID            string    `bun:"id,pk"`
	Title         string    `bun:"title,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`
	ID            int64     `bun:"id,pk,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	Role          string    `bun:"role,notnull"`
	Content       string    `bun:"content,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// SessionStore keeps chat sessions and their ordered messages.
type SessionStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrPersistence, op, err)
}

// CreateSession inserts a session titled after its first user message.
func (s *SessionStore) CreateSession(ctx context.Context, id, firstUserMessage string) error {
	if err := createSession(ctx, s.db, id, firstUserMessage, s.now()); err != nil {
		return persistenceError("create session", err)
	}
	return nil
}

// AppendTurn inserts the user message and then the assistant message.
func (s *SessionStore) AppendTurn(ctx context.Context, sessionID, userText, assistantText string) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return appendTurn(ctx, tx, sessionID, userText, assistantText, s.now())
	})
	if err != nil {
		return persistenceError("append turn", err)
	}
	return nil
}

// SaveTurn stores a whole chat turn atomically: the session when isNew, then
// both messages. Either everything is committed or nothing is.
func (s *SessionStore) SaveTurn(ctx context.Context, sessionID string, isNew bool, userText, assistantText string) error {
	now := s.now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if isNew {
			if err := createSession(ctx, tx, sessionID, userText, now); err != nil {
				return err
			}
		}
		return appendTurn(ctx, tx, sessionID, userText, assistantText, now)
	})
	if err != nil {
		return persistenceError("save turn", err)
	}
	return nil
}

func createSession(ctx context.Context, db bun.IDB, id, firstUserMessage string, now time.Time) error {
	session := &Session{
		ID:        id,
		Title:     models.SessionTitle(firstUserMessage),
		CreatedAt: now.UTC(),
	}
	_, err := db.NewInsert().Model(session).Exec(ctx)
	return err
}

func appendTurn(ctx context.Context, db bun.IDB, sessionID, userText, assistantText string, now time.Time) error {
	msgs := []Message{
		{SessionID: sessionID, Role: models.RoleUser, Content: userText, CreatedAt: now.UTC()},
		{SessionID: sessionID, Role: models.RoleAssistant, Content: assistantText, CreatedAt: now.UTC()},
	}
	// one insert per message so ids follow role order on every dialect
	for i := range msgs {
		if _, err := db.NewInsert().Model(&msgs[i]).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionStore) SessionExists(ctx context.Context, id string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*Session)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return false, persistenceError("lookup session", err)
	}
	return exists, nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	var sessions []Session
	err := s.db.NewSelect().
		Model(&sessions).
		Column("id", "title").
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, persistenceError("list sessions", err)
	}

	out := make([]models.SessionSummary, len(sessions))
	for i, session := range sessions {
		out[i] = models.SessionSummary{ID: session.ID, Title: session.Title}
	}
	return out, nil
}

// GetHistory returns the messages of a session in insertion order. An
// unknown session has an empty history.
func (s *SessionStore) GetHistory(ctx context.Context, sessionID string) ([]models.HistoryMessage, error) {
	var msgs []Message
	err := s.db.NewSelect().
		Model(&msgs).
		Column("role", "content").
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, persistenceError("get history", err)
	}

	out := make([]models.HistoryMessage, len(msgs))
	for i, m := range msgs {
		out[i] = models.HistoryMessage{Role: m.Role, Content: m.Content}
	}
	return out, nil
}

// ClearAll deletes every message and then every session.
func (s *SessionStore) ClearAll(ctx context.Context) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*Message)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*Session)(nil)).Where("1 = 1").Exec(ctx)
		return err
	})
	if err != nil {
		return persistenceError("clear history", err)
	}
	return nil
}
