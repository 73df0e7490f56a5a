package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
)

func newTestRepo(t *testing.T) *SessionRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewSessionRepo(client)
}

func testSession(sid string, userID int64) authsvc.SessionRecord {
	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    userID,
		Role:      "student",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", 7), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	session, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.UserID != 7 || session.Role != "student" {
		t.Fatalf("unexpected session: %+v", session)
	}

	byRefresh, err := repo.GetByRefreshToken(ctx, "refresh-1")
	if err != nil {
		t.Fatalf("get by refresh: %v", err)
	}
	if byRefresh.SID != "sid-1" {
		t.Fatalf("refresh lookup returned sid %q", byRefresh.SID)
	}
}

func TestSessionGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetSession(context.Background(), "nope"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := repo.GetByRefreshToken(context.Background(), "nope"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestRotateRefreshInvalidatesOldToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", 7), "refresh-old"); err != nil {
		t.Fatalf("create: %v", err)
	}

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-old", "refresh-new", newExpiry); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if _, err := repo.GetByRefreshToken(ctx, "refresh-old"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("old token must be gone, got %v", err)
	}
	session, err := repo.GetByRefreshToken(ctx, "refresh-new")
	if err != nil {
		t.Fatalf("new token lookup: %v", err)
	}
	if session.SID != "sid-1" {
		t.Fatalf("rotation moved the token to sid %q", session.SID)
	}
}

func TestRotateRefreshRejectsSessionMismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", 7), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.RotateRefresh(ctx, "sid-other", "refresh-1", "refresh-2", time.Now().Add(time.Hour))
	if !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestDeleteSessionRemovesRefreshToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", 7), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("session must be gone, got %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-1"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("refresh token must be gone, got %v", err)
	}
}

func TestDeleteAllForUserRevokesEverySession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", 7), "refresh-1"); err != nil {
		t.Fatalf("create sid-1: %v", err)
	}
	if err := repo.Create(ctx, testSession("sid-2", 7), "refresh-2"); err != nil {
		t.Fatalf("create sid-2: %v", err)
	}
	if err := repo.Create(ctx, testSession("sid-3", 8), "refresh-3"); err != nil {
		t.Fatalf("create sid-3: %v", err)
	}

	if err := repo.DeleteAllForUser(ctx, 7); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	for _, sid := range []string{"sid-1", "sid-2"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("%s must be revoked, got %v", sid, err)
		}
	}
	if _, err := repo.GetSession(ctx, "sid-3"); err != nil {
		t.Fatalf("other user's session must survive: %v", err)
	}
}
