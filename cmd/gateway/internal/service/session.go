package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/store/models"
)

// redisAPI is the slice of the redis client the session store actually
// uses. *redis.Client satisfies it; tests substitute a fake.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// SessionStore keeps conversation state in redis under a fixed key prefix
// with a sliding TTL. Redis being unreachable is never fatal on this path:
// reads fail open to a fresh session, writes are logged and dropped.
type SessionStore struct {
	client    redisAPI
	keyPrefix string
	timeout   time.Duration
}

func NewSessionStore(client redisAPI, keyPrefix string, timeout time.Duration) *SessionStore {
	if keyPrefix == "" {
		keyPrefix = "session:"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &SessionStore{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   timeout,
	}
}

func (s *SessionStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// GetOrCreate returns the stored session or a fresh INITIAL one if the
// lookup misses or fails. Every call re-persists the session, which resets
// the TTL.
func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID, phoneNumber string) *models.Session {
	session, ok := s.load(ctx, sessionID)
	if !ok {
		now := time.Now()
		session = &models.Session{
			SessionID:      sessionID,
			PhoneNumber:    phoneNumber,
			Stage:          models.StageInitial,
			CreatedAt:      now,
			LastAccessedAt: now,
		}
		log.Printf("Creating new session for sessionId=%s, phoneNumber=%s", sessionID, phoneNumber)
	} else {
		session.LastAccessedAt = time.Now()
	}

	s.save(ctx, session)
	return session
}

// Get returns the session if present, refreshing its TTL on the way out.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.Session, bool) {
	session, ok := s.load(ctx, sessionID)
	if !ok {
		return nil, false
	}
	session.LastAccessedAt = time.Now()
	s.save(ctx, session)
	return session, true
}

// SetLanguage stores the caller's language choice. No-op when the session
// is gone (expired between callbacks).
func (s *SessionStore) SetLanguage(ctx context.Context, sessionID, languageCode string) {
	session, ok := s.load(ctx, sessionID)
	if !ok {
		return
	}
	session.Language = languageCode
	session.Stage = models.StageLanguageSelected
	session.LastAccessedAt = time.Now()
	s.save(ctx, session)
	log.Printf("Session %s: language set to %s", sessionID, languageCode)
}

// Delete removes the session. Idempotent.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		log.Printf("failed to delete session %s: %v", sessionID, err)
		return
	}
	log.Printf("Session deleted, sessionId=%s", sessionID)
}

// CountActive scans live session keys. Diagnostic only; returns -1 when
// redis misbehaves instead of erroring.
func (s *SessionStore) CountActive(ctx context.Context) int64 {
	var count int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", 100).Result()
		if err != nil {
			log.Printf("failed to count active sessions: %v", err)
			return -1
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count
		}
	}
}

// Exists reports whether a session key is present without refreshing it.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) bool {
	err := s.client.Get(ctx, s.key(sessionID)).Err()
	return err == nil
}

// TTL returns the remaining lifetime of a session in seconds, -1 if absent
// or on error.
func (s *SessionStore) TTL(ctx context.Context, sessionID string) int64 {
	d, err := s.client.TTL(ctx, s.key(sessionID)).Result()
	if err != nil || d < 0 {
		return -1
	}
	return int64(d.Seconds())
}

type SessionStats struct {
	ActiveSessions int64     `json:"active_sessions"`
	TimeoutSeconds int64     `json:"timeout_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

func (s *SessionStore) Stats(ctx context.Context) SessionStats {
	return SessionStats{
		ActiveSessions: s.CountActive(ctx),
		TimeoutSeconds: int64(s.timeout.Seconds()),
		Timestamp:      time.Now(),
	}
}

func (s *SessionStore) load(ctx context.Context, sessionID string) (*models.Session, bool) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		// Treat an unreachable backend as "no session" and restart the
		// conversation rather than failing the callback.
		log.Printf("failed to load session %s: %v", sessionID, err)
		return nil, false
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("corrupt session %s: %v", sessionID, err)
		return nil, false
	}
	return &session, true
}

func (s *SessionStore) save(ctx context.Context, session *models.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("failed to marshal session %s: %v", session.SessionID, err)
		return
	}
	if err := s.client.Set(ctx, s.key(session.SessionID), data, s.timeout).Err(); err != nil {
		log.Printf("failed to save session %s: %v", session.SessionID, err)
	}
}
