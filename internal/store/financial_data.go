package store

import (
	"context"
	"fmt"
	"log"

	"finhub/internal/model"
)

const (
	StatusCompleted = "completed"
	StatusInvalid   = "invalid"
)

// SaveResult 将任务结果的窄表数据写入数据库，返回写入记录数
// 同一 jobID 只能写入一次
func (s *Store) SaveResult(ctx context.Context, jobID, fileName string, result *model.ProcessingResult) (int, error) {
	if result == nil || !result.Success {
		return 0, fmt.Errorf("cannot persist unsuccessful result for job %s", jobID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	logID, err := createImportLog(ctx, tx, jobID, fileName)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO financial_data (import_log_id, cod, seg, file, sheet, month, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range result.UnpivotedData {
		if _, err := stmt.ExecContext(ctx, logID, r.Cod, r.Seg, r.File, r.Sheet, r.Month, r.Value); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	for _, sum := range SheetSummaries(result) {
		if err := insertSheetSummary(ctx, tx, logID, sum); err != nil {
			return 0, err
		}
	}

	status := StatusCompleted
	if !result.Validation.IsValid {
		status = StatusInvalid
	}
	if err := completeImportLog(ctx, tx, logID, result.Validation.IsValid,
		len(result.Validation.Errors), len(result.Validation.Warnings),
		len(result.UnpivotedData), status, result.Error); err != nil {
		return 0, err
	}
	if err := setSetting(ctx, tx, SettingLastImportJob, jobID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	log.Printf("[store] job %s persisted %d records (sqlite)", jobID, len(result.UnpivotedData))
	return len(result.UnpivotedData), nil
}

// SheetSummaries 按工作表统计宽表行数与窄表记录数，顺序同 RequiredSheets
func SheetSummaries(result *model.ProcessingResult) []SheetSummary {
	records := make(map[string]int)
	for _, r := range result.UnpivotedData {
		records[r.Sheet]++
	}

	var out []SheetSummary
	for _, name := range model.RequiredSheets {
		rows, ok := result.RawData[name]
		if !ok {
			continue
		}
		out = append(out, SheetSummary{
			SheetName:   name,
			RowCount:    len(rows),
			RecordCount: records[name],
			Months:      result.MonthColumns,
		})
	}
	return out
}

// MonthValues 某工作表中 (cod, seg) 组合按月份的已持久化数值
func (s *Store) MonthValues(ctx context.Context, sheet string, cod int64, seg string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT month, SUM(value)
		FROM financial_data
		WHERE sheet = ? AND cod = ? AND seg = ?
		GROUP BY month
	`, sheet, cod, seg)
	if err != nil {
		return nil, fmt.Errorf("query month values failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var month string
		var v float64
		if err := rows.Scan(&month, &v); err != nil {
			return nil, fmt.Errorf("scan month values failed: %w", err)
		}
		out[month] = v
	}
	return out, rows.Err()
}
