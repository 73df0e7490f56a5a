package users

import (
	"context"
	"errors"
	"testing"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

type storeStub struct {
	nextID int64
	byID   map[int64]pgrepo.UserRecord
}

func newStoreStub() *storeStub {
	return &storeStub{nextID: 1, byID: make(map[int64]pgrepo.UserRecord)}
}

func (s *storeStub) add(role string) pgrepo.UserRecord {
	rec := pgrepo.UserRecord{
		ID:     s.nextID,
		Role:   role,
		Status: string(enums.UserStatusActive),
	}
	s.nextID++
	s.byID[rec.ID] = rec
	return rec
}

func (s *storeStub) Create(_ context.Context, email, passwordHash, fullName, role string) (pgrepo.UserRecord, error) {
	for _, rec := range s.byID {
		if rec.Email == email {
			return pgrepo.UserRecord{}, pgrepo.ErrEmailTaken
		}
	}
	rec := pgrepo.UserRecord{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		Status:       string(enums.UserStatusActive),
	}
	s.nextID++
	s.byID[rec.ID] = rec
	return rec, nil
}

func (s *storeStub) FindByID(_ context.Context, id int64) (pgrepo.UserRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return rec, nil
}

func (s *storeStub) UpdateProfile(_ context.Context, id int64, fullName, website, avatarKey string) error {
	rec, ok := s.byID[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	rec.FullName = fullName
	rec.Website = website
	rec.AvatarKey = avatarKey
	s.byID[id] = rec
	return nil
}

func (s *storeStub) UpdateRole(_ context.Context, id int64, role string) error {
	rec, ok := s.byID[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	rec.Role = role
	s.byID[id] = rec
	return nil
}

func (s *storeStub) UpdateStatus(_ context.Context, id int64, status string) error {
	rec, ok := s.byID[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	rec.Status = status
	s.byID[id] = rec
	return nil
}

func (s *storeStub) Delete(_ context.Context, id int64) error {
	delete(s.byID, id)
	return nil
}

func (s *storeStub) List(_ context.Context, _, _ int) ([]pgrepo.UserRecord, error) {
	var out []pgrepo.UserRecord
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out, nil
}

type revokerStub struct {
	revoked []int64
}

func (s *revokerStub) DeleteAllForUser(_ context.Context, userID int64) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func newTestService() (*Service, *storeStub, *revokerStub) {
	store := newStoreStub()
	revoker := &revokerStub{}
	return NewService(Dependencies{Store: store, Sessions: revoker}), store, revoker
}

func TestAdminCreateAssignsRole(t *testing.T) {
	svc, _, _ := newTestService()

	rec, err := svc.AdminCreate(context.Background(), string(enums.RoleSubAdmin), "New@Example.com", "sup3rsecret", "Ada", string(enums.RoleInstructor))
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if rec.Email != "new@example.com" || rec.Role != string(enums.RoleInstructor) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := svc.AdminCreate(context.Background(), string(enums.RoleSubAdmin), "new@example.com", "sup3rsecret", "", string(enums.RoleStudent)); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAdminCreateRoleGuards(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.AdminCreate(context.Background(), string(enums.RoleInstructor), "a@b.com", "sup3rsecret", "", string(enums.RoleStudent)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin actor: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AdminCreate(context.Background(), string(enums.RoleSubAdmin), "a@b.com", "sup3rsecret", "", string(enums.RoleSubAdmin)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sub admin minting admin: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AdminCreate(context.Background(), string(enums.RoleSystemAdmin), "a@b.com", "sup3rsecret", "", string(enums.RoleSubAdmin)); err != nil {
		t.Fatalf("system admin minting sub admin: %v", err)
	}
	if _, err := svc.AdminCreate(context.Background(), string(enums.RoleSystemAdmin), "b@b.com", "sup3rsecret", "", string(enums.RoleSystemAdmin)); !errors.Is(err, ErrValidation) {
		t.Fatalf("system_admin role: expected ErrValidation, got %v", err)
	}
}

func TestSuspendRevokesSessions(t *testing.T) {
	svc, store, revoker := newTestService()
	target := store.add(string(enums.RoleStudent))

	if err := svc.Suspend(context.Background(), string(enums.RoleSubAdmin), target.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if store.byID[target.ID].Status != string(enums.UserStatusSuspended) {
		t.Fatalf("status not updated: %+v", store.byID[target.ID])
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != target.ID {
		t.Fatalf("sessions must be revoked on suspension, got %v", revoker.revoked)
	}
}

func TestAdminHierarchy(t *testing.T) {
	svc, store, _ := newTestService()
	systemAdmin := store.add(string(enums.RoleSystemAdmin))
	subAdmin := store.add(string(enums.RoleSubAdmin))

	if err := svc.Suspend(context.Background(), string(enums.RoleSubAdmin), systemAdmin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("system admin must be untouchable, got %v", err)
	}
	if err := svc.Suspend(context.Background(), string(enums.RoleSystemAdmin), systemAdmin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("system admin must be untouchable even to itself, got %v", err)
	}
	if err := svc.Suspend(context.Background(), string(enums.RoleSubAdmin), subAdmin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sub admin must not manage admins, got %v", err)
	}
	if err := svc.Suspend(context.Background(), string(enums.RoleSystemAdmin), subAdmin.ID); err != nil {
		t.Fatalf("system admin must manage sub admins: %v", err)
	}
}

func TestChangeRoleForcesRelogin(t *testing.T) {
	svc, store, revoker := newTestService()
	target := store.add(string(enums.RoleStudent))

	if err := svc.ChangeRole(context.Background(), string(enums.RoleSystemAdmin), target.ID, string(enums.RoleInstructor)); err != nil {
		t.Fatalf("change role: %v", err)
	}
	if store.byID[target.ID].Role != string(enums.RoleInstructor) {
		t.Fatalf("role not updated: %+v", store.byID[target.ID])
	}
	if len(revoker.revoked) != 1 {
		t.Fatal("role change must revoke live sessions")
	}

	if err := svc.ChangeRole(context.Background(), string(enums.RoleSubAdmin), target.ID, string(enums.RoleSubAdmin)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sub admin promoting to sub admin: expected ErrForbidden, got %v", err)
	}
	if err := svc.ChangeRole(context.Background(), string(enums.RoleSystemAdmin), target.ID, "owner"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown role: expected ErrValidation, got %v", err)
	}
}
