package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyPersisted 同一任务已写入过
var ErrAlreadyPersisted = errors.New("job already persisted")

// ImportLog 导入日志
type ImportLog struct {
	ID           int64      `json:"id"`
	JobID        string     `json:"jobId"`
	Filename     string     `json:"filename"`
	IsValid      bool       `json:"isValid"`
	ErrorCount   int        `json:"errorCount"`
	WarningCount int        `json:"warningCount"`
	RecordCount  int        `json:"recordCount"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// createImportLog 创建导入日志，返回 import_log_id
func createImportLog(ctx context.Context, tx *sql.Tx, jobID, filename string) (int64, error) {
	var existing int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM import_logs WHERE job_id = ?`, jobID).Scan(&existing)
	if err == nil {
		return 0, ErrAlreadyPersisted
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check import log: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO import_logs (job_id, filename, status)
		VALUES (?, ?, 'processing')
	`, jobID, filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// completeImportLog 完成导入日志更新
func completeImportLog(ctx context.Context, tx *sql.Tx, id int64, isValid bool, errorCount, warningCount, recordCount int, status, errorMessage string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE import_logs SET
			is_valid = ?,
			error_count = ?,
			warning_count = ?,
			record_count = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, isValid, errorCount, warningCount, recordCount, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（按创建时间倒序）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, filename, is_valid, error_count, warning_count, record_count,
		       status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	var out []ImportLog
	for rows.Next() {
		var it ImportLog
		var completed sql.NullTime
		if err := rows.Scan(&it.ID, &it.JobID, &it.Filename, &it.IsValid, &it.ErrorCount, &it.WarningCount,
			&it.RecordCount, &it.Status, &it.ErrorMessage, &it.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}
