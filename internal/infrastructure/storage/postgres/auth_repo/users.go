// Package auth_repo provides the PostgreSQL implementation of the user
// account repository.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/auth"
	"kota/internal/infrastructure/storage/postgres"
)

const tableName = "users"

// Compile-time check.
var _ auth.UserRepository = (*Repo)(nil)

// Repo persists user accounts.
type Repo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewRepo creates the user repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[auth.User](),
	}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new user.
func (r *Repo) Create(ctx context.Context, user *auth.User) error {
	q := r.builder().
		Insert(tableName).
		SetMap(postgres.StructToMap(user))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("user", "username", user.Username)
		}
		return fmt.Errorf("insert %s: %w", tableName, err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *Repo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"id": userID}).
		Limit(1)

	return r.getOne(ctx, q, userID.String())
}

// GetByUsername retrieves a user by username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"username": username}).
		Limit(1)

	return r.getOne(ctx, q, username)
}

func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*auth.User, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user := &auth.User{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// List returns all user accounts ordered by username.
func (r *Repo) List(ctx context.Context) ([]*auth.User, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		OrderBy("username ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []*auth.User
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users, sql, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update modifies an existing user.
func (r *Repo) Update(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)
	delete(data, "id")
	delete(data, "created_at")

	q := r.builder().
		Update(tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": user.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(tableName, user.ID.String())
	}

	return nil
}
