package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/homekitchen/internal/models"
)

// InsertAuditLog appends an audit record. Snapshots are stored as JSON text;
// a nil snapshot is stored as NULL.
func (t *sqliteTx) InsertAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = fromUnix(t.timestamp())
	}

	oldValues, err := snapshotColumn(log.OldValues)
	if err != nil {
		return fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := snapshotColumn(log.NewValues)
	if err != nil {
		return fmt.Errorf("failed to encode new values: %w", err)
	}

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, table_name, record_id, old_values, new_values, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.UserID, log.Action, log.TableName, log.RecordID, oldValues, newValues, toUnix(log.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read audit log ID: %w", err)
	}
	log.ID = id
	return nil
}

// ListAuditLogs retrieves every audit log, newest first.
func (q *queries) ListAuditLogs(ctx context.Context) ([]*models.AuditLog, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, user_id, action, table_name, record_id, old_values, new_values, timestamp
		 FROM audit_logs ORDER BY timestamp DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		var userID, recordID sql.NullInt64
		var tableName, oldValues, newValues sql.NullString
		var timestamp int64
		if err := rows.Scan(&log.ID, &userID, &log.Action, &tableName, &recordID,
			&oldValues, &newValues, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		log.UserID = userID.Int64
		log.TableName = tableName.String
		log.RecordID = recordID.Int64
		log.Timestamp = fromUnix(timestamp)

		if log.OldValues, err = models.DecodeSnapshot([]byte(oldValues.String)); err != nil {
			return nil, err
		}
		if log.NewValues, err = models.DecodeSnapshot([]byte(newValues.String)); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return logs, nil
}

func snapshotColumn(s models.Snapshot) (any, error) {
	b, err := models.EncodeSnapshot(s)
	if err != nil || b == nil {
		return nil, err
	}
	return string(b), nil
}
