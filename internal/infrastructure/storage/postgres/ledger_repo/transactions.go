// Package ledger_repo provides the PostgreSQL implementation of the
// append-only stock ledger. Rows are only ever inserted; there is no
// update or delete surface.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/ledger"
	"kota/internal/infrastructure/storage/postgres"
)

const tableName = "stock_transactions"

// Compile-time check.
var _ ledger.Repository = (*Repo)(nil)

// Repo persists stock ledger entries.
type Repo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewRepo creates the ledger repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[ledger.StockTransaction](),
	}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append validates and inserts a ledger entry. The id and timestamp
// are assigned here when the caller left them zero.
func (r *Repo) Append(ctx context.Context, entry *ledger.StockTransaction) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	q := r.builder().
		Insert(tableName).
		SetMap(postgres.StructToMap(entry))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// item_id is not a foreign key (the ledger outlives item
		// deletion); only user_id can violate one here.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewNotFound("users", entry.UserID.String())
		}
		return fmt.Errorf("insert %s: %w", tableName, err)
	}

	return nil
}

// ListByItem returns an item's ledger entries, newest first.
func (r *Repo) ListByItem(ctx context.Context, itemID id.ID) ([]*ledger.StockTransaction, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("ts DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.StockTransaction
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list by item: %w", err)
	}
	return entries, nil
}

// ListRecent returns the most recent ledger entries across all items.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]*ledger.StockTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		OrderBy("ts DESC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.StockTransaction
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return entries, nil
}
