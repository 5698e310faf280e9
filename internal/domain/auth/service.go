package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/core/tx"
	"kota/internal/domain/audit"
	"kota/pkg/logger"
)

const entityTypeUser = "user"

// Service handles authentication and user administration. Logins and
// password resets leave audit trail entries alongside the entity
// mutations.
type Service struct {
	users  UserRepository
	audits audit.Repository
	jwt    *JWTService
	txm    tx.Manager
}

// NewService creates the auth service.
func NewService(users UserRepository, audits audit.Repository, jwtSvc *JWTService, txm tx.Manager) *Service {
	return &Service{users: users, audits: audits, jwt: jwtSvc, txm: txm}
}

type userSnapshot struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            id.ID  `json:"id"`
	Username      string `json:"username"`
	Role          Role   `json:"role"`
	IsActive      bool   `json:"isActive"`
}

func snapshotUser(u *User) json.RawMessage {
	b, _ := json.Marshal(userSnapshot{
		SchemaVersion: 1,
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		IsActive:      u.IsActive,
	})
	return b
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        *User     `json:"user"`
}

// Authenticate verifies the credentials and issues an access token.
// Unknown usernames and wrong passwords produce the same error so the
// response does not reveal which accounts exist. Successful logins are
// recorded in the audit trail.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	err = s.audits.Append(ctx, &audit.Entry{
		UserID:     user.ID,
		EntityType: entityTypeUser,
		EntityID:   user.ID,
		Action:     audit.ActionLogin,
	})
	if err != nil {
		return nil, fmt.Errorf("append login audit: %w", err)
	}

	logger.Info(ctx, "user authenticated", "user_id", user.ID, "username", user.Username)
	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateUser registers a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, username, password string, role Role, actorID id.ID) (*User, error) {
	user := NewUser(username, role)
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, apperror.NewValidation("password is too short").WithDetail("field", "password")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.NewDuplicate("user", "username", username)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	user.PasswordHash = string(hash)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeUser,
			EntityID:   user.ID,
			Action:     audit.ActionCreate,
			AfterJSON:  snapshotUser(user),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers returns all user accounts.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

// UpdateRole changes a user's role.
func (s *Service) UpdateRole(ctx context.Context, userID id.ID, role Role, actorID id.ID) (*User, error) {
	if !role.IsValid() {
		return nil, apperror.NewValidation("invalid role").WithDetail("field", "role")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := snapshotUser(user)
	user.Role = role

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeUser,
			EntityID:   user.ID,
			Action:     audit.ActionUpdate,
			BeforeJSON: before,
			AfterJSON:  snapshotUser(user),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate disables an account without deleting it. Deactivated
// users keep their audit history but can no longer authenticate.
func (s *Service) Deactivate(ctx context.Context, userID id.ID, actorID id.ID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}
	before := snapshotUser(user)
	user.IsActive = false

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeUser,
			EntityID:   user.ID,
			Action:     audit.ActionUpdate,
			BeforeJSON: before,
			AfterJSON:  snapshotUser(user),
		})
	})
}

// ResetPassword replaces a user's password hash. Recorded in the audit
// trail with the password_reset action; snapshots never carry hashes.
func (s *Service) ResetPassword(ctx context.Context, userID id.ID, newPassword string, actorID id.ID) error {
	if len(newPassword) < minPasswordLen {
		return apperror.NewValidation("password is too short").WithDetail("field", "password")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	user.PasswordHash = string(hash)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeUser,
			EntityID:   user.ID,
			Action:     audit.ActionPasswordReset,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "password reset", "user_id", user.ID, "actor_id", actorID)
	return nil
}
