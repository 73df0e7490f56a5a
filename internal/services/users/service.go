package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

const minPasswordLen = 8

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrForbidden    = errors.New("forbidden")
)

type Store interface {
	Create(ctx context.Context, email, passwordHash, fullName, role string) (pgrepo.UserRecord, error)
	FindByID(ctx context.Context, id int64) (pgrepo.UserRecord, error)
	UpdateProfile(ctx context.Context, id int64, fullName, website, avatarKey string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]pgrepo.UserRecord, error)
}

type SessionRevoker interface {
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type Service struct {
	store    Store
	sessions SessionRevoker
	logger   *zap.Logger
}

type Dependencies struct {
	Store    Store
	Sessions SessionRevoker
	Logger   *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    deps.Store,
		sessions: deps.Sessions,
		logger:   logger,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (pgrepo.UserRecord, error) {
	if userID <= 0 {
		return pgrepo.UserRecord{}, ErrValidation
	}

	record, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.UserRecord{}, ErrUserNotFound
		}
		return pgrepo.UserRecord{}, fmt.Errorf("find user: %w", err)
	}
	return record, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, fullName, website, avatarKey string) (pgrepo.UserRecord, error) {
	if userID <= 0 || strings.TrimSpace(fullName) == "" {
		return pgrepo.UserRecord{}, ErrValidation
	}

	if err := s.store.UpdateProfile(ctx, userID, strings.TrimSpace(fullName), strings.TrimSpace(website), avatarKey); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.UserRecord{}, ErrUserNotFound
		}
		return pgrepo.UserRecord{}, fmt.Errorf("update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// AdminCreate provisions an account with an assigned role. Only the system
// admin may mint other admins; the system_admin role is never assignable.
func (s *Service) AdminCreate(ctx context.Context, actorRole, email, password, fullName, role string) (pgrepo.UserRecord, error) {
	if !enums.Role(actorRole).IsAdmin() {
		return pgrepo.UserRecord{}, ErrForbidden
	}

	switch enums.Role(role) {
	case enums.RoleStudent, enums.RoleInstructor:
	case enums.RoleSubAdmin:
		if enums.Role(actorRole) != enums.RoleSystemAdmin {
			return pgrepo.UserRecord{}, ErrForbidden
		}
	default:
		return pgrepo.UserRecord{}, ErrValidation
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || len(password) < minPasswordLen {
		return pgrepo.UserRecord{}, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pgrepo.UserRecord{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := s.store.Create(ctx, email, string(hash), strings.TrimSpace(fullName), role)
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return pgrepo.UserRecord{}, ErrEmailTaken
		}
		return pgrepo.UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return record, nil
}

func (s *Service) List(ctx context.Context, actorRole string, limit, offset int) ([]pgrepo.UserRecord, error) {
	if !enums.Role(actorRole).IsAdmin() {
		return nil, ErrForbidden
	}

	records, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return records, nil
}

// ChangeRole reassigns a user's role. Only the system admin may touch
// admin roles, and nobody may demote the system admin.
func (s *Service) ChangeRole(ctx context.Context, actorRole string, targetID int64, newRole string) error {
	switch enums.Role(newRole) {
	case enums.RoleStudent, enums.RoleInstructor, enums.RoleSubAdmin:
	default:
		return ErrValidation
	}

	target, err := s.requireManageable(ctx, actorRole, targetID)
	if err != nil {
		return err
	}
	if enums.Role(newRole) == enums.RoleSubAdmin && enums.Role(actorRole) != enums.RoleSystemAdmin {
		return ErrForbidden
	}

	if err := s.store.UpdateRole(ctx, target.ID, newRole); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	// Role lives inside live sessions, force a fresh login.
	s.revokeSessions(ctx, target.ID)
	return nil
}

// Suspend blocks an account and revokes its sessions so existing tokens
// stop working immediately.
func (s *Service) Suspend(ctx context.Context, actorRole string, targetID int64) error {
	target, err := s.requireManageable(ctx, actorRole, targetID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateStatus(ctx, target.ID, string(enums.UserStatusSuspended)); err != nil {
		return fmt.Errorf("suspend user: %w", err)
	}

	s.revokeSessions(ctx, target.ID)
	return nil
}

func (s *Service) Reinstate(ctx context.Context, actorRole string, targetID int64) error {
	target, err := s.requireManageable(ctx, actorRole, targetID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateStatus(ctx, target.ID, string(enums.UserStatusActive)); err != nil {
		return fmt.Errorf("reinstate user: %w", err)
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, actorRole string, targetID int64) error {
	target, err := s.requireManageable(ctx, actorRole, targetID)
	if err != nil {
		return err
	}

	s.revokeSessions(ctx, target.ID)

	if err := s.store.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// requireManageable loads the target and enforces the admin hierarchy:
// the system admin account is untouchable, and sub admins may only manage
// non-admin accounts.
func (s *Service) requireManageable(ctx context.Context, actorRole string, targetID int64) (pgrepo.UserRecord, error) {
	if targetID <= 0 {
		return pgrepo.UserRecord{}, ErrValidation
	}
	if !enums.Role(actorRole).IsAdmin() {
		return pgrepo.UserRecord{}, ErrForbidden
	}

	target, err := s.store.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.UserRecord{}, ErrUserNotFound
		}
		return pgrepo.UserRecord{}, fmt.Errorf("find target user: %w", err)
	}

	if enums.Role(target.Role) == enums.RoleSystemAdmin {
		return pgrepo.UserRecord{}, ErrForbidden
	}
	if enums.Role(actorRole) == enums.RoleSubAdmin && enums.Role(target.Role).IsAdmin() {
		return pgrepo.UserRecord{}, ErrForbidden
	}

	return target, nil
}

func (s *Service) revokeSessions(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Warn("session revocation failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}
