package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/audit"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, _ string, _ id.ID) ([]*audit.Entry, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, _ int) ([]*audit.Entry, error) {
	return r.entries, nil
}

type fakeUserRepo struct {
	users map[id.ID]*User
}

func (r *fakeUserRepo) Create(_ context.Context, user *User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("users", userID.String())
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("users", username)
}

func (r *fakeUserRepo) List(_ context.Context) ([]*User, error) {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NewNotFound("users", user.ID.String())
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func newTestAuthService() (*Service, *fakeUserRepo, *fakeAuditRepo) {
	users := &fakeUserRepo{users: make(map[id.ID]*User)}
	audits := &fakeAuditRepo{}
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(users, audits, jwtSvc, fakeTxManager{}), users, audits
}

func isUnauthorized(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == apperror.CodeUnauthorized
}

func TestAuthenticate(t *testing.T) {
	svc, _, audits := newTestAuthService()
	ctx := context.Background()
	actor := id.New()

	user, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleAdmin, actor)
	require.NoError(t, err)

	pair, err := svc.Authenticate(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, user.ID, pair.User.ID)

	// create + login
	require.Len(t, audits.entries, 2)
	assert.Equal(t, audit.ActionLogin, audits.entries[1].Action)
	assert.Equal(t, user.ID, audits.entries[1].EntityID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleUser, id.New())
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong-pass")
	assert.True(t, isUnauthorized(err))
}

func TestAuthenticate_UnknownUserSameError(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever1")
	assert.True(t, isUnauthorized(err))
	assert.NotContains(t, err.Error(), "not found")
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()
	actor := id.New()

	user, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleUser, actor)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, user.ID, actor))

	_, err = svc.Authenticate(ctx, "alice", "s3cret-pass")
	assert.True(t, isUnauthorized(err))
}

func TestCreateUser_HashesPassword(t *testing.T) {
	svc, users, _ := newTestAuthService()

	user, err := svc.CreateUser(context.Background(), "alice", "s3cret-pass", RoleUser, id.New())
	require.NoError(t, err)

	stored := users.users[user.ID]
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleUser, id.New())
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "alice", "other-pass1", RoleUser, id.New())
	assert.True(t, apperror.IsDuplicate(err))
}

func TestCreateUser_ShortPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.CreateUser(context.Background(), "alice", "short", RoleUser, id.New())
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateRole(t *testing.T) {
	svc, _, audits := newTestAuthService()
	ctx := context.Background()
	actor := id.New()

	user, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleUser, actor)
	require.NoError(t, err)

	updated, err := svc.UpdateRole(ctx, user.ID, RoleAdmin, actor)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)

	last := audits.entries[len(audits.entries)-1]
	assert.Equal(t, audit.ActionUpdate, last.Action)
	assert.NotEmpty(t, last.BeforeJSON)
	assert.NotEmpty(t, last.AfterJSON)
}

func TestUpdateRole_InvalidRole(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.UpdateRole(context.Background(), id.New(), Role("root"), id.New())
	assert.True(t, apperror.IsValidation(err))
}

func TestDeactivate_Idempotent(t *testing.T) {
	svc, users, audits := newTestAuthService()
	ctx := context.Background()
	actor := id.New()

	user, err := svc.CreateUser(ctx, "alice", "s3cret-pass", RoleUser, actor)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, user.ID, actor))
	assert.False(t, users.users[user.ID].IsActive)
	audited := len(audits.entries)

	// Second deactivation is a no-op and leaves no extra audit entry.
	require.NoError(t, svc.Deactivate(ctx, user.ID, actor))
	assert.Len(t, audits.entries, audited)
}

func TestResetPassword(t *testing.T) {
	svc, _, audits := newTestAuthService()
	ctx := context.Background()
	actor := id.New()

	user, err := svc.CreateUser(ctx, "alice", "old-password", RoleUser, actor)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "new-password", actor))

	_, err = svc.Authenticate(ctx, "alice", "old-password")
	assert.True(t, isUnauthorized(err))
	_, err = svc.Authenticate(ctx, "alice", "new-password")
	assert.NoError(t, err)

	var resets []*audit.Entry
	for _, e := range audits.entries {
		if e.Action == audit.ActionPasswordReset {
			resets = append(resets, e)
		}
	}
	require.Len(t, resets, 1)
	assert.Empty(t, resets[0].BeforeJSON)
	assert.Empty(t, resets[0].AfterJSON)
}
