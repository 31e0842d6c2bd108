package validation

import (
	"fmt"
	"math"
	"sort"

	"finhub/internal/model"
)

// ValidateMonthlyVariation 检查各行月度数值的波动
// 月份顺序默认按日历排序；LegacyColumnOrder 时保持列顺序
func ValidateMonthlyVariation(rows []*model.Record, months []model.MonthColumn, cfg model.BusinessConfig) model.ValidationResult {
	var warnings []string

	ordered := months
	if !cfg.LegacyColumnOrder {
		ordered = make([]model.MonthColumn, len(months))
		copy(ordered, months)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })
	}

	for idx, row := range rows {
		rowNum := idx + 2

		values := make([]float64, 0, len(ordered))
		for _, m := range ordered {
			if c := row.Get(m.Header); c.IsFiniteNumber() {
				values = append(values, c.Number)
			}
		}

		if len(values) > 1 {
			maxValue, minValue, sum := values[0], values[0], 0.0
			for _, v := range values {
				maxValue = math.Max(maxValue, v)
				minValue = math.Min(minValue, v)
				sum += v
			}
			avg := sum / float64(len(values))
			if avg != 0 {
				variation := math.Abs((maxValue - minValue) / avg)
				if variation > cfg.MaxMonthlyVariation {
					warnings = append(warnings, fmt.Sprintf("Row %d: extreme variation detected across months (%.1f%%)", rowNum, variation*100))
				}
			}

			for i := 1; i < len(values); i++ {
				prev, curr := values[i-1], values[i]
				if prev == 0 {
					continue
				}
				change := math.Abs((curr - prev) / prev)
				if change > cfg.MaxMonthlyVariation {
					warnings = append(warnings, fmt.Sprintf("Row %d: abrupt variation detected between consecutive months (%.1f%%)", rowNum, change*100))
				}
			}
		}

		nonZero := 0
		for _, v := range values {
			if v != 0 {
				nonZero++
			}
		}
		if nonZero < cfg.MinimumNonZeroMonths {
			warnings = append(warnings, fmt.Sprintf("Row %d: few months with non-zero values (%d)", rowNum, nonZero))
		}
	}

	return model.ResultOf(nil, warnings)
}

// BusinessKey 业务键 cod-seg
func BusinessKey(r *model.Record) string {
	return fmt.Sprintf("%s-%s", r.Get(model.ColumnCod).String(), r.Get(model.ColumnSeg).String())
}

// ValidateUniqueness 同一工作表内 (cod, seg) 不允许重复
func ValidateUniqueness(rows []*model.Record, cfg model.BusinessConfig) model.ValidationResult {
	var errors []string

	if !cfg.AllowDuplicateCodSeg {
		firstSeen := make(map[string]int, len(rows))
		for idx, row := range rows {
			combo := BusinessKey(row)
			if first, ok := firstSeen[combo]; ok {
				errors = append(errors, fmt.Sprintf("Row %d: duplicate cod+seg combination: %s (first occurrence at row %d)", idx+2, combo, first+2))
				continue
			}
			firstSeen[combo] = idx
		}
	}

	return model.ResultOf(errors, nil)
}

// ValidateBusinessRules 合并波动检查与唯一性检查
func ValidateBusinessRules(rows []*model.Record, months []model.MonthColumn, cfg model.BusinessConfig) model.ValidationResult {
	return model.Merge(
		ValidateMonthlyVariation(rows, months, cfg),
		ValidateUniqueness(rows, cfg),
	)
}
