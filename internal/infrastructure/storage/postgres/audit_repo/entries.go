// Package audit_repo provides the PostgreSQL implementation of the
// append-only audit trail. Before/after snapshots are stored as one
// changes payload; large payloads are zstd-compressed transparently.
package audit_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"kota/internal/core/id"
	"kota/internal/domain/audit"
	"kota/internal/infrastructure/storage/postgres"
)

const tableName = "audit_log"

// compressThreshold is the payload size above which zstd kicks in.
const compressThreshold = 10 * 1024

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Compile-time check.
var _ audit.Repository = (*Repo)(nil)

// changesPayload is the stored shape of an entry's snapshots.
type changesPayload struct {
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// Repo persists audit trail entries.
type Repo struct {
	txm     *postgres.TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewRepo creates the audit repository.
func NewRepo(txm *postgres.TxManager) (*Repo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Repo{txm: txm, encoder: encoder, decoder: decoder}, nil
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append validates and inserts an audit entry. The id and timestamp
// are assigned here when the caller left them zero.
func (r *Repo) Append(ctx context.Context, entry *audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	changes, err := json.Marshal(changesPayload{
		Before: entry.BeforeJSON,
		After:  entry.AfterJSON,
	})
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	algo := CompressionNone
	var compressed []byte
	if len(changes) > compressThreshold {
		compressed = r.encoder.EncodeAll(changes, nil)
		changes = nil
		algo = CompressionZstd
	}

	q := r.builder().
		Insert(tableName).
		SetMap(map[string]any{
			"id":                 entry.ID,
			"ts":                 entry.Timestamp,
			"user_id":            entry.UserID,
			"entity_type":        entry.EntityType,
			"entity_id":          entry.EntityID,
			"action":             entry.Action,
			"changes":            changes,
			"changes_compressed": compressed,
			"compression_algo":   algo,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", tableName, err)
	}

	return nil
}

// ListByEntity returns an entity's audit entries, newest first.
func (r *Repo) ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]*audit.Entry, error) {
	q := r.selectEntries().
		Where(squirrel.Eq{"entity_type": entityType}).
		Where(squirrel.Eq{"entity_id": entityID})

	return r.queryEntries(ctx, q)
}

// ListRecent returns the most recent audit entries across all entities.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryEntries(ctx, r.selectEntries().Limit(uint64(limit)))
}

func (r *Repo) selectEntries() squirrel.SelectBuilder {
	return r.builder().
		Select(
			"id", "ts", "user_id", "entity_type", "entity_id", "action",
			"changes", "changes_compressed", "compression_algo",
		).
		From(tableName).
		OrderBy("ts DESC")
}

func (r *Repo) queryEntries(ctx context.Context, q squirrel.SelectBuilder) ([]*audit.Entry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repo) scanEntry(rows pgx.Rows) (*audit.Entry, error) {
	var (
		e          audit.Entry
		changes    []byte
		compressed []byte
		algo       CompressionAlgo
	)
	err := rows.Scan(
		&e.ID, &e.Timestamp, &e.UserID, &e.EntityType, &e.EntityID, &e.Action,
		&changes, &compressed, &algo,
	)
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	if algo == CompressionZstd && len(compressed) > 0 {
		changes, err = r.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
	}

	if len(changes) > 0 {
		var payload changesPayload
		if err := json.Unmarshal(changes, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal changes: %w", err)
		}
		e.BeforeJSON = payload.Before
		e.AfterJSON = payload.After
	}

	return &e, nil
}
