// Package item_repo provides the PostgreSQL implementation of the item
// registry repository.
package item_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/item"
	"kota/internal/domain/location"
	"kota/internal/infrastructure/storage/postgres"
)

const tableName = "items"

// Compile-time check.
var _ item.Repository = (*Repo)(nil)

// Repo persists items with optimistic locking on the version column.
type Repo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewRepo creates the item repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[item.Item](),
	}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new item using its "db" tags.
func (r *Repo) Create(ctx context.Context, it *item.Item) error {
	data := postgres.StructToMap(it)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	q := r.builder().
		Insert(tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewNotFound("bin", it.BinID.String())
		}
		return fmt.Errorf("insert %s: %w", tableName, err)
	}

	return nil
}

// GetByID retrieves an item by ID.
func (r *Repo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	it := &item.Item{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, itemID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return it, nil
}

// Update modifies an existing item with optimistic locking. The write
// only lands when the stored version still equals it.Version; the
// database bumps the version by one as part of the same statement. Zero
// rows affected on an existing row means another writer got there
// first.
func (r *Repo) Update(ctx context.Context, it *item.Item) error {
	data := postgres.StructToMap(it)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	version, ok := data["row_version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'row_version' field or it is not an int")
	}

	delete(data, "id")
	delete(data, "row_version")
	delete(data, "created_at")

	q := r.builder().
		Update(tableName).
		SetMap(data).
		Set("row_version", squirrel.Expr("row_version + 1")).
		Where(squirrel.Eq{"id": it.ID}).
		Where(squirrel.Eq{"row_version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", tableName, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a vanished row from a version mismatch.
		exists, exErr := r.exists(ctx, it.ID)
		if exErr != nil {
			return exErr
		}
		if !exists {
			return apperror.NewNotFound(tableName, it.ID.String())
		}
		return apperror.NewConcurrentModification(tableName, it.ID)
	}

	it.SetVersion(version + 1)
	return nil
}

// Delete performs physical removal from the database.
func (r *Repo) Delete(ctx context.Context, itemID id.ID) error {
	q := r.builder().
		Delete(tableName).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute delete %s: %w", tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(tableName, itemID.String())
	}

	return nil
}

func (r *Repo) exists(ctx context.Context, itemID id.ID) (bool, error) {
	q := r.builder().
		Select("1").
		From(tableName).
		Where(squirrel.Eq{"id": itemID}).
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

// gridSelect joins items with the full location chain. The area join
// is LEFT because areas are optional.
func (r *Repo) gridSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(
			"i.id",
			"i.manufacturer_sku",
			"i.description",
			"i.qty_on_hand",
			"i.min_qty",
			"s.name AS site",
			"bd.name AS building",
			"rm.name AS room",
			"a.name AS area",
			"su.name AS storage_unit",
			"b.name AS bin",
			"i.notes",
			"i.row_version AS version",
		).
		From(tableName + " i").
		Join("bins b ON b.id = i.bin_id").
		Join("storage_units su ON su.id = b.storage_unit_id").
		Join("rooms rm ON rm.id = su.room_id").
		LeftJoin("areas a ON a.id = su.area_id").
		Join("buildings bd ON bd.id = rm.building_id").
		Join("sites s ON s.id = bd.site_id")
}

// ListGrid returns all items with their resolved location names.
func (r *Repo) ListGrid(ctx context.Context) ([]*item.GridRow, error) {
	q := r.gridSelect().OrderBy("i.description ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*item.GridRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list grid: %w", err)
	}
	return rows, nil
}

// ListLowStock returns items whose quantity is at or below their
// minimum threshold.
func (r *Repo) ListLowStock(ctx context.Context) ([]*item.GridRow, error) {
	q := r.gridSelect().
		Where(squirrel.Expr("i.qty_on_hand <= i.min_qty")).
		OrderBy("i.description ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*item.GridRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return rows, nil
}

// GetLocation resolves the Site→Bin name chain for an item's bin.
func (r *Repo) GetLocation(ctx context.Context, itemID id.ID) (*location.Path, error) {
	q := r.builder().
		Select(
			"s.name AS site_name",
			"bd.name AS building_name",
			"rm.name AS room_name",
			"a.name AS area_name",
			"su.name AS storage_unit_name",
			"b.name AS bin_name",
		).
		From(tableName + " i").
		Join("bins b ON b.id = i.bin_id").
		Join("storage_units su ON su.id = b.storage_unit_id").
		Join("rooms rm ON rm.id = su.room_id").
		LeftJoin("areas a ON a.id = su.area_id").
		Join("buildings bd ON bd.id = rm.building_id").
		Join("sites s ON s.id = bd.site_id").
		Where(squirrel.Eq{"i.id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	path := &location.Path{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), path, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, itemID.String())
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return path, nil
}
