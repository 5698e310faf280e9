// Package location_repo provides PostgreSQL implementations for the
// location hierarchy repositories. Each level shares the same CRUD
// shape; the generic base keeps the per-level repos thin.
package location_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/infrastructure/storage/postgres"
)

// baseNodeRepo provides common CRUD operations for location nodes.
// Embed this in level-specific repositories.
type baseNodeRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
}

func newBaseNodeRepo[T any](txm *postgres.TxManager, tableName string) baseNodeRepo[T] {
	return baseNodeRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
	}
}

func (r *baseNodeRepo[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// create inserts a node using its "db" tags. A foreign key violation
// means the parent disappeared between check and insert.
func (r *baseNodeRepo[T]) create(ctx context.Context, node *T) error {
	data := postgres.StructToMap(node)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	q := r.builder().
		Insert(r.tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return apperror.NewNotFound(r.tableName+" parent", "referenced id")
			case "23505":
				return apperror.NewConflict("code already used by a sibling").
					WithDetail("entity", r.tableName).
					WithCause(err)
			}
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return nil
}

func (r *baseNodeRepo[T]) getByID(ctx context.Context, nodeID id.ID) (*T, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": nodeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	node := new(T)
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), node, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.tableName, nodeID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return node, nil
}

// list returns nodes matching where, ordered by code.
func (r *baseNodeRepo[T]) list(ctx context.Context, where any) ([]*T, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(r.tableName).
		OrderBy("code ASC")
	if where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var nodes []*T
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &nodes, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return nodes, nil
}

// existsWhere reports whether any row matches where.
func (r *baseNodeRepo[T]) existsWhere(ctx context.Context, where any) (bool, error) {
	q := r.builder().
		Select("1").
		From(r.tableName).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// delete performs physical removal. A foreign key violation means the
// node still has dependents and the delete is rejected.
func (r *baseNodeRepo[T]) delete(ctx context.Context, nodeID id.ID) error {
	q := r.builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": nodeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("cannot delete: node still has dependents").
				WithDetail("entity", r.tableName).
				WithDetail("id", nodeID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, nodeID.String())
	}

	return nil
}
