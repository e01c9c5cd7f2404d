package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/suPer8Hu/chat-history/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists users, auth records, chat sessions and messages. Every
// multi-statement operation runs in one transaction; a Store is safe for
// concurrent use.
type Store struct {
	db     *gorm.DB
	cache  SessionCache
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, mainly for tests that need ordered timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.With("component", "chatstore")
		}
	}
}

// WithSessionCache puts a read-through cache in front of ListUserSessions.
func WithSessionCache(c SessionCache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// NewStore wraps an already opened handle. Call Initialize before use on a
// fresh database.
func NewStore(gdb *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:     gdb,
		now:    time.Now,
		logger: slog.Default().With("component", "chatstore"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open connects, verifies the connection and creates any missing tables.
func Open(ctx context.Context, dbOpts db.Options, opts ...Option) (*Store, error) {
	gdb, err := db.Connect(ctx, dbOpts)
	if err != nil {
		if errors.Is(err, db.ErrInvalidOptions) {
			return nil, fmt.Errorf("open chat store: %w", err)
		}
		return nil, fmt.Errorf("open chat store: %w: %w", ErrConnectionFailure, err)
	}
	s := NewStore(gdb, opts...)
	if err := s.Initialize(ctx); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}
	s.logger.Info("chat store ready", "dialect", gdb.Dialector.Name())
	return s, nil
}

func (s *Store) Close() error {
	return db.Close(s.db)
}

// stamp is the persisted form of the current time. DATETIME columns keep
// whole seconds.
func (s *Store) stamp() time.Time {
	return s.now().Truncate(time.Second)
}

// Initialize creates the four tables when absent. It never touches data and is
// safe to run on every start.
func (s *Store) Initialize(ctx context.Context) error {
	stmts := schemaFor(s.db.Dialector.Name())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return wrapErr("initialize schema", err)
}

// EnsureUser inserts the user row unless one already exists. Concurrent
// callers racing on the same id all succeed.
func (s *Store) EnsureUser(ctx context.Context, userID, username string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return wrapErr("ensure user", insertUserIfAbsent(s.db.WithContext(ctx), userID, username, s.stamp()))
}

func insertUserIfAbsent(tx *gorm.DB, userID, username string, now time.Time) error {
	u := User{UserID: userID, CreatedAt: now}
	if username != "" {
		u.Username = &username
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error
}

// SaveChatHistory upserts the session and replaces its whole message list
// with messages, all stamped with one capture time. A non-empty sessionName
// renames an existing session; an empty one keeps the current name.
func (s *Store) SaveChatHistory(ctx context.Context, userID, sessionID string, messages []ChatMessage, sessionName string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if sessionID == "" {
		return ErrEmptySessionID
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return fmt.Errorf("save chat history: message %d role %q: %w", i, m.Role, ErrInvalidRole)
		}
	}
	if err := s.EnsureUser(ctx, userID, ""); err != nil {
		return err
	}

	now := s.stamp()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Session{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&n).Error; err != nil {
			return err
		}

		if n == 0 {
			name := sessionName
			if name == "" {
				name = defaultHistoryName(now)
			}
			// a session id owned by another user fails here on the primary key
			if err := tx.Create(&Session{
				SessionID:   sessionID,
				UserID:      userID,
				SessionName: &name,
				CreatedAt:   now,
				LastUpdated: now,
			}).Error; err != nil {
				return err
			}
		} else {
			updates := map[string]any{"last_updated": now}
			if sessionName != "" {
				updates["session_name"] = sessionName
			}
			if err := tx.Model(&Session{}).
				Where("session_id = ? AND user_id = ?", sessionID, userID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("session_id = ?", sessionID).Delete(&Message{}).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		rows := make([]Message, 0, len(messages))
		for _, m := range messages {
			rows = append(rows, Message{
				SessionID: sessionID,
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: now,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return wrapErr("save chat history", err)
	}
	s.invalidateSessions(ctx, userID)
	return nil
}

// AppendMessage adds one message to sessionID, or to a new session owned by
// userID when sessionID is empty, and returns the session id used.
//
// A sessionID that is missing or owned by another user is rejected with
// ErrConstraintViolation. Unlike SaveChatHistory it does not create the user
// row; a new session for an unknown user fails on the users foreign key.
func (s *Store) AppendMessage(ctx context.Context, userID, sessionID string, role MessageRole, content string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	if !role.Valid() {
		return "", fmt.Errorf("append message: role %q: %w", role, ErrInvalidRole)
	}

	now := s.now()
	ts := now.Truncate(time.Second)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sessionID == "" {
			sessionID = NewSessionID(now, userID)
			name := defaultChatName(ts)
			if err := tx.Create(&Session{
				SessionID:   sessionID,
				UserID:      userID,
				SessionName: &name,
				CreatedAt:   ts,
				LastUpdated: ts,
			}).Error; err != nil {
				return err
			}
		} else {
			var n int64
			if err := tx.Model(&Session{}).
				Where("session_id = ? AND user_id = ?", sessionID, userID).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("session %q not found for user %q: %w", sessionID, userID, ErrConstraintViolation)
			}
		}

		if err := tx.Create(&Message{
			SessionID: sessionID,
			Role:      role,
			Content:   content,
			Timestamp: ts,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&Session{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Update("last_updated", ts).Error
	})
	if err != nil {
		return "", wrapErr("append message", err)
	}
	s.invalidateSessions(ctx, userID)
	return sessionID, nil
}

// CreateSession opens an empty session and returns its id. The user row is
// not created here.
func (s *Store) CreateSession(ctx context.Context, userID, sessionName string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	now := s.now()
	ts := now.Truncate(time.Second)
	if sessionName == "" {
		sessionName = defaultChatName(ts)
	}
	sess := Session{
		SessionID:   NewSessionID(now, userID),
		UserID:      userID,
		SessionName: &sessionName,
		CreatedAt:   ts,
		LastUpdated: ts,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return "", wrapErr("create session", err)
	}
	s.invalidateSessions(ctx, userID)
	return sess.SessionID, nil
}

// LoadChatHistory returns the session's messages oldest first. The bool is
// false when the session does not exist or belongs to another user.
func (s *Store) LoadChatHistory(ctx context.Context, userID, sessionID string) (History, bool, error) {
	if userID == "" {
		return History{}, false, ErrEmptyUserID
	}
	gdb := s.db.WithContext(ctx)

	var sess Session
	if err := gdb.Where("session_id = ? AND user_id = ?", sessionID, userID).Take(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return History{}, false, nil
		}
		return History{}, false, wrapErr("load chat history", err)
	}

	var rows []Message
	if err := gdb.Select("role", "content").
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return History{}, false, wrapErr("load chat history", err)
	}

	msgs := make([]ChatMessage, 0, len(rows))
	for _, m := range rows {
		msgs = append(msgs, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return History{
		Messages:    msgs,
		SessionName: derefString(sess.SessionName),
		LastUpdated: formatTime(sess.LastUpdated),
	}, true, nil
}

// ListUserSessions returns the user's sessions, most recently updated first.
// The user row is created if missing so a first-time user gets an empty list.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	if err := s.EnsureUser(ctx, userID, ""); err != nil {
		return nil, err
	}

	if cached, ok := s.cachedSessions(ctx, userID); ok {
		return cached, nil
	}
	// read before the rows so a write committed meanwhile blocks the fill
	gen, fill := s.cacheGeneration(ctx, userID)

	var rows []Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, wrapErr("list user sessions", err)
	}

	out := make([]SessionSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionSummary{
			SessionID:   r.SessionID,
			SessionName: derefString(r.SessionName),
			LastUpdated: formatTime(r.LastUpdated),
		})
	}
	if fill {
		s.storeSessions(ctx, userID, gen, out)
	}
	return out, nil
}

// DeleteSession removes the session and its messages. It returns false without
// writing anything when the session is missing or owned by someone else.
func (s *Store) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	if userID == "" {
		return false, ErrEmptyUserID
	}
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Session{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		// messages first, they reference the session
		if err := tx.Where("session_id = ?", sessionID).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&Session{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, wrapErr("delete session", err)
	}
	if deleted {
		s.invalidateSessions(ctx, userID)
	}
	return deleted, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
