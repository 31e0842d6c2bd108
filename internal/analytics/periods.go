package analytics

import (
	"fmt"
	"sort"
	"time"

	"finhub/internal/model"
	"finhub/internal/parser"
)

// Period 分组周期
type Period string

const (
	PeriodMonth    Period = "month"
	PeriodQuarter  Period = "quarter"
	PeriodSemester Period = "semester"
	PeriodYear     Period = "year"
)

// ParsePeriod 解析周期名称
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodMonth, PeriodQuarter, PeriodSemester, PeriodYear:
		return Period(s), nil
	case "":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("unsupported period: %s", s)
}

// FinancialPeriod 一个分组周期及其包含的月份列
type FinancialPeriod struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Months []string `json:"months"`
	Order  int      `json:"order"`
}

type datedMonth struct {
	original string
	date     time.Time
}

func parseMonths(months []string, cfg model.DateConfig) []datedMonth {
	out := make([]datedMonth, 0, len(months))
	for _, m := range months {
		if d, ok := parser.ParseMonthDate(m, cfg); ok {
			out = append(out, datedMonth{original: m, date: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

func quarterOf(m time.Month) int  { return (int(m)-1)/3 + 1 }
func semesterOf(m time.Month) int { return (int(m)-1)/6 + 1 }

// periodKey 计算日期所在周期的 ID、标签与排序值
func periodKey(d time.Time, period Period) (id, label string, order int) {
	year, month := d.Year(), d.Month()
	switch period {
	case PeriodQuarter:
		q := quarterOf(month)
		return fmt.Sprintf("%d-Q%d", year, q), fmt.Sprintf("Q%d %d", q, year), year*4 + q - 1
	case PeriodSemester:
		s := semesterOf(month)
		return fmt.Sprintf("%d-S%d", year, s), fmt.Sprintf("%dº Sem %d", s, year), year*2 + s - 1
	case PeriodYear:
		return fmt.Sprintf("%d", year), fmt.Sprintf("%d", year), year
	default:
		return fmt.Sprintf("%d-%02d", year, int(month)), parser.FormatMonthLabel(year, month), year*12 + int(month) - 1
	}
}

// GroupMonthsByPeriod 将月份列按周期分组，按时间排序；无法解析的月份被忽略
func GroupMonthsByPeriod(months []string, period Period, cfg model.DateConfig) []FinancialPeriod {
	groups := make(map[string]*FinancialPeriod)
	var ids []string

	for _, m := range parseMonths(months, cfg) {
		id, label, order := periodKey(m.date, period)
		g, ok := groups[id]
		if !ok {
			g = &FinancialPeriod{ID: id, Label: label, Order: order}
			groups[id] = g
			ids = append(ids, id)
		}
		g.Months = append(g.Months, m.original)
	}

	out := make([]FinancialPeriod, 0, len(ids))
	for _, id := range ids {
		out = append(out, *groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortedMonths 按日历顺序排列月份列
func SortedMonths(months []string, cfg model.DateConfig) []string {
	parsed := parseMonths(months, cfg)
	out := make([]string, 0, len(parsed))
	for _, m := range parsed {
		out = append(out, m.original)
	}
	return out
}

// PreviousPeriod 上一个周期对应的月份标签
func PreviousPeriod(month string, period Period, cfg model.DateConfig) (string, bool) {
	d, ok := parser.ParseMonthDate(month, cfg)
	if !ok {
		return "", false
	}
	switch period {
	case PeriodQuarter:
		d = d.AddDate(0, -3, 0)
	case PeriodSemester:
		d = d.AddDate(0, -6, 0)
	case PeriodYear:
		d = d.AddDate(-1, 0, 0)
	default:
		d = d.AddDate(0, -1, 0)
	}
	return parser.FormatMonthLabel(d.Year(), d.Month()), true
}
