package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SheetSummary 工作表摘要（用于追溯）
type SheetSummary struct {
	SheetName   string   `json:"sheetName"`
	RowCount    int      `json:"rowCount"`
	RecordCount int      `json:"recordCount"`
	Months      []string `json:"months"`
}

// insertSheetSummary 写入工作表摘要
func insertSheetSummary(ctx context.Context, tx *sql.Tx, importLogID int64, sum SheetSummary) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO import_sheets (import_log_id, sheet_name, row_count, record_count, months_json)
		VALUES (?, ?, ?, ?, ?)
	`, importLogID, sum.SheetName, sum.RowCount, sum.RecordCount, BuildColumnsJSON(sum.Months))
	if err != nil {
		return fmt.Errorf("failed to insert import_sheets: %w", err)
	}
	return nil
}

// ListSheetSummaries 某次导入的工作表摘要
func (s *Store) ListSheetSummaries(ctx context.Context, jobID string) ([]SheetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.sheet_name, s.row_count, s.record_count, s.months_json
		FROM import_sheets s
		JOIN import_logs l ON l.id = s.import_log_id
		WHERE l.job_id = ?
		ORDER BY s.id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query import_sheets failed: %w", err)
	}
	defer rows.Close()

	var out []SheetSummary
	for rows.Next() {
		var it SheetSummary
		var monthsJSON string
		if err := rows.Scan(&it.SheetName, &it.RowCount, &it.RecordCount, &monthsJSON); err != nil {
			return nil, fmt.Errorf("scan import_sheets failed: %w", err)
		}
		if err := json.Unmarshal([]byte(monthsJSON), &it.Months); err != nil {
			return nil, fmt.Errorf("decode months_json failed: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// BuildColumnsJSON 将列名序列化为 JSON
func BuildColumnsJSON(columns []string) string {
	if columns == nil {
		columns = []string{}
	}
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}
