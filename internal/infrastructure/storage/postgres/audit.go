// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"atelier/internal/core/id"
	"atelier/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which zstd is applied.
const DefaultCompressThreshold = 4 * 1024

const auditTable = "sys_audit"

// AuditRow is a single sys_audit row.
type AuditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditRecorder writes the lifecycle and stock journal to sys_audit.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates a recorder. threshold <= 0 uses the default.
func NewAuditRecorder(txManager *TxManager, threshold int) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	row, err := r.encode(entry)
	if err != nil {
		return err
	}

	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(auditTable).
		Columns("id", "entity_type", "entity_id", "action", "payload", "payload_compressed", "compression_algo", "created_at").
		Values(row.ID, row.EntityType, row.EntityID, row.Action, row.Payload, row.PayloadCompressed, row.CompressionAlgo, row.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if outer := r.txManager.GetTx(ctx); outer != nil {
		err = execInSavepoint(ctx, outer, sql, args)
	} else {
		_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	}
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// savepointer opens a nested transaction, which pgx implements as a SAVEPOINT.
type savepointer interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// execInSavepoint runs one statement under a savepoint of the caller's
// transaction. A failed insert is rolled back to the savepoint and leaves the
// outer transaction usable.
func execInSavepoint(ctx context.Context, outer savepointer, sql string, args []any) error {
	sp, err := outer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("open savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, sql, args...); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}

// encode converts an entry into a row, compressing large payloads.
func (r *AuditRecorder) encode(entry audit.Entry) (AuditRow, error) {
	row := AuditRow{
		ID:              id.New(),
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return row, fmt.Errorf("marshal audit payload: %w", err)
	}

	if len(payload) > r.compressThreshold {
		row.PayloadCompressed = r.encoder.EncodeAll(payload, nil)
		row.CompressionAlgo = CompressionZstd
		return row, nil
	}
	row.Payload = payload
	return row, nil
}

// decode restores the JSON payload of a row.
func (r *AuditRecorder) decode(row AuditRow) (map[string]any, error) {
	raw := []byte(row.Payload)
	if row.CompressionAlgo == CompressionZstd && len(row.PayloadCompressed) > 0 {
		decompressed, err := r.decoder.DecodeAll(row.PayloadCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		raw = decompressed
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}

// History returns the newest journal entries of one entity.
func (r *AuditRecorder) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "entity_type", "entity_id", "action", "payload", "payload_compressed", "compression_algo", "created_at").
		From(auditTable).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var row AuditRow
		if err := rows.Scan(
			&row.ID, &row.EntityType, &row.EntityID, &row.Action,
			&row.Payload, &row.PayloadCompressed, &row.CompressionAlgo, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		payload, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, audit.Entry{
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     row.Action,
			Payload:    payload,
			CreatedAt:  row.CreatedAt,
		})
	}

	return entries, rows.Err()
}
