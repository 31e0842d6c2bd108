package importer

import (
	"finhub/internal/model"
	"finhub/internal/parser"
)

// Unpivot 宽表转窄表：每个 (行, 月份) 的有限数值生成一条记录
// 输出顺序 = 工作表顺序 × 行顺序 × 月份列顺序，不做排序
func Unpivot(sheets []model.SheetData, months []model.MonthColumn, cfg model.DateConfig) []model.UnpivotedRecord {
	labels := make([]string, len(months))
	for i, m := range months {
		// 规范化失败属于内部不一致，该列跳过
		if label, ok := parser.NormalizeMonthColumn(m.Header, cfg); ok {
			labels[i] = label
		}
	}

	var out []model.UnpivotedRecord
	for _, sheet := range sheets {
		for _, row := range sheet.Records {
			cod, _ := row.Cod()
			seg := row.Text(model.ColumnSeg)
			file := row.Text(model.ColumnFile)
			for i, m := range months {
				if labels[i] == "" {
					continue
				}
				c := row.Get(m.Header)
				if !c.IsFiniteNumber() {
					continue
				}
				out = append(out, model.UnpivotedRecord{
					Cod:   cod,
					Seg:   seg,
					File:  file,
					Sheet: sheet.Name,
					Month: labels[i],
					Value: c.Number,
				})
			}
		}
	}
	if out == nil {
		out = []model.UnpivotedRecord{}
	}
	return out
}
