package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"finhub/internal/model"
	"finhub/internal/parser"
)

// CalculatePeriodChange 环比变化百分比
// 任一值缺失返回 nil；上期为 0 时，本期也为 0 返回 0，否则返回 nil
func CalculatePeriodChange(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	if *previous == 0 {
		if *current == 0 {
			zero := 0.0
			return &zero
		}
		return nil
	}
	change := (*current - *previous) / math.Abs(*previous) * 100
	return &change
}

// CalculateYTD 目标月份所在年份从年初到目标月份（含）的累计值
// values 以月份列为键
func CalculateYTD(values map[string]float64, months []string, target string, cfg model.DateConfig) (float64, bool) {
	targetDate, ok := parser.ParseMonthDate(target, cfg)
	if !ok {
		return 0, false
	}

	sum := decimal.Zero
	found := false
	for _, m := range months {
		d, ok := parser.ParseMonthDate(m, cfg)
		if !ok || d.Year() != targetDate.Year() || d.After(targetDate) {
			continue
		}
		v, ok := values[m]
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
		found = true
	}
	if !found {
		return 0, false
	}
	return sum.InexactFloat64(), true
}

// CalculateYoY 同比变化百分比；上年同月需在 values 中以规范标签存在
func CalculateYoY(values map[string]float64, target string, cfg model.DateConfig) *float64 {
	prevLabel, ok := PreviousPeriod(target, PeriodYear, cfg)
	if !ok {
		return nil
	}
	var current, previous *float64
	if v, ok := values[target]; ok {
		current = &v
	}
	if v, ok := values[prevLabel]; ok {
		previous = &v
	}
	return CalculatePeriodChange(current, previous)
}

// PeriodTotal 工作表在某个周期内的合计
type PeriodTotal struct {
	Sheet   string  `json:"sheet"`
	Period  string  `json:"period"`
	Label   string  `json:"label"`
	Order   int     `json:"order"`
	Total   float64 `json:"total"`
	Records int     `json:"records"`
}

// SummarizeByPeriod 按 (工作表, 周期) 汇总窄表数值，使用十进制累加
// 输出按工作表首次出现顺序、周期时间顺序排列
func SummarizeByPeriod(records []model.UnpivotedRecord, period Period, cfg model.DateConfig) []PeriodTotal {
	type acc struct {
		total decimal.Decimal
		count int
		label string
		order int
	}

	var sheets []string
	bySheet := make(map[string]map[string]*acc)
	keysBySheet := make(map[string][]string)

	for _, r := range records {
		d, ok := parser.ParseMonthDate(r.Month, cfg)
		if !ok {
			continue
		}
		id, label, order := periodKey(d, period)
		m, ok := bySheet[r.Sheet]
		if !ok {
			m = make(map[string]*acc)
			bySheet[r.Sheet] = m
			sheets = append(sheets, r.Sheet)
		}
		a, ok := m[id]
		if !ok {
			a = &acc{total: decimal.Zero, label: label, order: order}
			m[id] = a
			keysBySheet[r.Sheet] = append(keysBySheet[r.Sheet], id)
		}
		a.total = a.total.Add(decimal.NewFromFloat(r.Value))
		a.count++
	}

	var out []PeriodTotal
	for _, s := range sheets {
		start := len(out)
		for _, id := range keysBySheet[s] {
			a := bySheet[s][id]
			out = append(out, PeriodTotal{
				Sheet:   s,
				Period:  id,
				Label:   a.label,
				Order:   a.order,
				Total:   a.total.InexactFloat64(),
				Records: a.count,
			})
		}
		group := out[start:]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	return out
}

