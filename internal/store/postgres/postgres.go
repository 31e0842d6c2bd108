package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finhub/internal/model"
	"finhub/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS import_logs (
    id BIGSERIAL PRIMARY KEY,
    job_id TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL DEFAULT '',
    is_valid BOOLEAN NOT NULL DEFAULT FALSE,
    error_count INTEGER NOT NULL DEFAULT 0,
    warning_count INTEGER NOT NULL DEFAULT 0,
    record_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'processing',
    error_message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS import_sheets (
    id BIGSERIAL PRIMARY KEY,
    import_log_id BIGINT NOT NULL REFERENCES import_logs(id) ON DELETE CASCADE,
    sheet_name TEXT NOT NULL,
    row_count INTEGER NOT NULL DEFAULT 0,
    record_count INTEGER NOT NULL DEFAULT 0,
    months_json JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS financial_data (
    id BIGSERIAL PRIMARY KEY,
    import_log_id BIGINT NOT NULL REFERENCES import_logs(id) ON DELETE CASCADE,
    cod BIGINT NOT NULL,
    seg TEXT NOT NULL,
    file TEXT NOT NULL,
    sheet TEXT NOT NULL,
    month TEXT NOT NULL,
    value DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_financial_data_month ON financial_data(month);
`

// copyColumns financial_data 的 COPY 列顺序
var copyColumns = []string{"import_log_id", "cod", "seg", "file", "sheet", "month", "value"}

// Store PostgreSQL 存储层
type Store struct {
	pool *pgxpool.Pool
}

// New 连接数据库并确保表结构存在
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema 建表
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close 关闭连接池
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Driver 驱动名称
func (s *Store) Driver() string {
	return "postgres"
}

// Ping 检查连接
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveResult 在一个事务内写入导入日志、工作表摘要，并用 COPY 批量写入窄表数据
func (s *Store) SaveResult(ctx context.Context, jobID, fileName string, result *model.ProcessingResult) (int, error) {
	if result == nil || !result.Success {
		return 0, fmt.Errorf("cannot persist unsuccessful result for job %s", jobID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var logID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO import_logs (job_id, filename, status)
		VALUES ($1, $2, 'processing')
		ON CONFLICT (job_id) DO NOTHING
		RETURNING id
	`, jobID, fileName).Scan(&logID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrAlreadyPersisted
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"financial_data"}, copyColumns, pgx.CopyFromRows(copyRows(logID, result.UnpivotedData)))
	if err != nil {
		return 0, fmt.Errorf("copy financial_data failed: %w", err)
	}

	for _, sum := range store.SheetSummaries(result) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO import_sheets (import_log_id, sheet_name, row_count, record_count, months_json)
			VALUES ($1, $2, $3, $4, $5)
		`, logID, sum.SheetName, sum.RowCount, sum.RecordCount, store.BuildColumnsJSON(sum.Months)); err != nil {
			return 0, fmt.Errorf("failed to insert import_sheets: %w", err)
		}
	}

	status := store.StatusCompleted
	if !result.Validation.IsValid {
		status = store.StatusInvalid
	}
	if _, err := tx.Exec(ctx, `
		UPDATE import_logs SET
			is_valid = $1, error_count = $2, warning_count = $3, record_count = $4,
			status = $5, error_message = $6, completed_at = now()
		WHERE id = $7
	`, result.Validation.IsValid, len(result.Validation.Errors), len(result.Validation.Warnings),
		n, status, result.Error, logID); err != nil {
		return 0, fmt.Errorf("failed to update import log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	log.Printf("[store] job %s persisted %d records (postgres)", jobID, n)
	return int(n), nil
}

// copyRows 将窄表记录转换为 COPY 行
func copyRows(importLogID int64, records []model.UnpivotedRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{importLogID, r.Cod, r.Seg, r.File, r.Sheet, r.Month, r.Value})
	}
	return rows
}

// ListAvailableMonths 列出存在数据的月份标签及记录数
func (s *Store) ListAvailableMonths(ctx context.Context) ([]store.MonthStat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT month, COUNT(1), COUNT(DISTINCT sheet)
		FROM financial_data
		GROUP BY month
	`)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	var out []store.MonthStat
	for rows.Next() {
		var it store.MonthStat
		if err := rows.Scan(&it.Month, &it.Records, &it.Sheets); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CountFinancialData 窄表总记录数
func (s *Store) CountFinancialData(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM financial_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count financial_data failed: %w", err)
	}
	return n, nil
}
