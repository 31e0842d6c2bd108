package store

import (
	"context"
	"fmt"
)

// MonthStat 已持久化月份统计
type MonthStat struct {
	Month   string `json:"month"`
	Records int    `json:"records"`
	Sheets  int    `json:"sheets"`
}

// ListAvailableMonths 列出数据库中存在数据的月份标签及记录数
// 返回顺序由调用方按日历排序
func (s *Store) ListAvailableMonths(ctx context.Context) ([]MonthStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT month, COUNT(1), COUNT(DISTINCT sheet)
		FROM financial_data
		GROUP BY month
	`)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	var out []MonthStat
	for rows.Next() {
		var it MonthStat
		if err := rows.Scan(&it.Month, &it.Records, &it.Sheets); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}

// CountFinancialData 窄表总记录数
func (s *Store) CountFinancialData(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM financial_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count financial_data failed: %w", err)
	}
	return n, nil
}
