package chat

import "context"

// SessionCache holds ListUserSessions results per user. Implementations must
// be safe for concurrent use.
//
// Every Invalidate bumps the user's generation. SetSessions stores a listing
// only while the generation still equals gen, the value read before the
// listing was loaded, so a fill racing with a write never outlives it.
type SessionCache interface {
	GetSessions(ctx context.Context, userID string) ([]SessionSummary, bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	SetSessions(ctx context.Context, userID string, gen int64, sessions []SessionSummary) error
	Invalidate(ctx context.Context, userID string) error
}

// Cache failures are logged and otherwise ignored: the database stays the
// source of truth and entries expire on their own.

func (s *Store) cachedSessions(ctx context.Context, userID string) ([]SessionSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	sessions, ok, err := s.cache.GetSessions(ctx, userID)
	if err != nil {
		s.logger.Warn("session cache read failed", "user_id", userID, "err", err)
		return nil, false
	}
	return sessions, ok
}

// cacheGeneration reports the generation to fill against. ok is false when
// there is no cache or it cannot be read, and the fill is then skipped.
func (s *Store) cacheGeneration(ctx context.Context, userID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.logger.Warn("session cache generation read failed", "user_id", userID, "err", err)
		return 0, false
	}
	return gen, true
}

func (s *Store) storeSessions(ctx context.Context, userID string, gen int64, sessions []SessionSummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSessions(ctx, userID, gen, sessions); err != nil {
		s.logger.Warn("session cache write failed", "user_id", userID, "err", err)
	}
}

func (s *Store) invalidateSessions(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("session cache invalidate failed", "user_id", userID, "err", err)
	}
}
