package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
)

// Key layout:
//
//	auth:sess:<sid>          JSON session payload
//	auth:refresh:<token>     sid owning the refresh token
//	auth:sess_refresh:<sid>  current refresh token of the session
//	auth:user_sess:<uid>     set of live sids for the user
const (
	sessionKeyPrefix = "auth:sess:"
	refreshKeyPrefix = "auth:refresh:"
	pointerKeyPrefix = "auth:sess_refresh:"
	userKeyPrefix    = "auth:user_sess:"
)

type sessionPayload struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 {
		return authsvc.ErrInvalidInput
	}

	raw, err := json.Marshal(sessionPayload{
		UserID:    session.UserID,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := ttlUntil(session.ExpiresAt)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.SID), raw, ttl)
	pipe.Set(ctx, refreshKey(refreshToken), session.SID, ttl)
	pipe.Set(ctx, pointerKey(session.SID), refreshToken, ttl)
	pipe.SAdd(ctx, userKey(session.UserID), session.SID)
	pipe.Expire(ctx, userKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create redis session: %w", err)
	}

	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, sessionKey(sid)).Result()
	if errors.Is(err, goredis.Nil) {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}

	return decodeSession(sid, raw)
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	sid, err := r.client.Get(ctx, refreshKey(refreshToken)).Result()
	if errors.Is(err, goredis.Nil) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("resolve refresh token: %w", err)
	}

	session, err := r.GetSession(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) {
		// Session key expired ahead of the token pointer.
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, err
}

func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	session, err := r.GetByRefreshToken(ctx, oldRefreshToken)
	if err != nil {
		return err
	}
	if sid != "" && sid != session.SID {
		return authsvc.ErrRefreshNotFound
	}

	raw, err := json.Marshal(sessionPayload{
		UserID:    session.UserID,
		Role:      session.Role,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := ttlUntil(expiresAt)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshKey(oldRefreshToken))
	pipe.Set(ctx, sessionKey(session.SID), raw, ttl)
	pipe.Set(ctx, refreshKey(newRefreshToken), session.SID, ttl)
	pipe.Set(ctx, pointerKey(session.SID), newRefreshToken, ttl)
	pipe.SAdd(ctx, userKey(session.UserID), session.SID)
	pipe.Expire(ctx, userKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	var userID int64
	if session, err := r.GetSession(ctx, sid); err == nil {
		userID = session.UserID
	} else if !errors.Is(err, authsvc.ErrSessionNotFound) {
		return err
	}

	refreshToken, err := r.client.Get(ctx, pointerKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("resolve session refresh pointer: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sid))
	pipe.Del(ctx, pointerKey(sid))
	if refreshToken != "" {
		pipe.Del(ctx, refreshKey(refreshToken))
	}
	if userID > 0 {
		pipe.SRem(ctx, userKey(userID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// DeleteAllForUser revokes every session of a user, the suspension path
// relies on this to cut off live tokens.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}

	if err := r.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions key: %w", err)
	}

	return nil
}

func decodeSession(sid, raw string) (authsvc.SessionRecord, error) {
	var payload sessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.UserID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    payload.UserID,
		Role:      payload.Role,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0).UTC(),
	}, nil
}

func ttlUntil(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func sessionKey(sid string) string {
	return sessionKeyPrefix + sid
}

func refreshKey(token string) string {
	return refreshKeyPrefix + token
}

func pointerKey(sid string) string {
	return pointerKeyPrefix + sid
}

func userKey(userID int64) string {
	return userKeyPrefix + strconv.FormatInt(userID, 10)
}
