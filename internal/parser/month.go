package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"finhub/internal/model"
)

// 规范标签使用的月份缩写（pt-BR）
var canonicalMonthAbbr = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// 月份名称（pt-BR / en-US，全称与缩写）
var monthNameSources = [][12]string{
	{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
	{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"},
	{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
}

var monthNames = buildMonthNames()

func buildMonthNames() map[string]time.Month {
	m := make(map[string]time.Month)
	for _, names := range monthNameSources {
		for i, name := range names {
			m[name] = time.Month(i + 1)
			if folded := StripAccents(name); folded != name {
				m[folded] = time.Month(i + 1)
			}
		}
	}
	return m
}

// StripAccents 去除变音符号（março -> marco）
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// LookupMonthName 按名称查找月份，忽略大小写、句点与变音符号
func LookupMonthName(name string) (time.Month, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), ".", ""))
	if m, ok := monthNames[key]; ok {
		return m, true
	}
	m, ok := monthNames[StripAccents(key)]
	return m, ok
}

// FormatMonthLabel 输出规范标签 Mmm/YY
func FormatMonthLabel(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return fmt.Sprintf("%s/%02d", canonicalMonthAbbr[month-1], year%100)
}

// monthParser 日期/月份解析器描述，按顺序尝试，第一个成功者胜出
type monthParser struct {
	name  string
	parse func(s string) (year int, month time.Month, ok bool)
}

var (
	canonicalPattern   = regexp.MustCompile(`^([A-Z][a-z]{2})/(\d{2})$`)
	isoPattern         = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDatePattern   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	monthYearPattern   = regexp.MustCompile(`^(\d{1,2})[-/](\d{4})$`)
	yearMonthPattern   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	textualPattern     = regexp.MustCompile(`^(\p{L}+)\.?[\s_\-/.]*(\d{4}|\d{2})$`)
	genericDateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"02-Jan-2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"Mon Jan 2 2006",
		"01-02-06",
	}
)

var monthParsers = []monthParser{
	{name: "canonical", parse: parseCanonicalLabel},
	{name: "iso", parse: parseISODate},
	{name: "br", parse: parseBrazilianDate},
	{name: "us", parse: parseUSDate},
	{name: "month-year", parse: parseNumericMonthYear},
	{name: "generic", parse: parseGenericDate},
	{name: "textual", parse: parseTextualMonthYear},
}

func parseCanonicalLabel(s string) (int, time.Month, bool) {
	m := canonicalPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	for i, abbr := range canonicalMonthAbbr {
		if abbr == m[1] {
			yy, _ := strconv.Atoi(m[2])
			return 2000 + yy, time.Month(i + 1), true
		}
	}
	return 0, 0, false
}

func parseISODate(s string) (int, time.Month, bool) {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	return validDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

func parseBrazilianDate(s string) (int, time.Month, bool) {
	m := slashDatePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	return validDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
}

func parseUSDate(s string) (int, time.Month, bool) {
	m := slashDatePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	return validDate(atoi(m[3]), atoi(m[1]), atoi(m[2]))
}

func parseNumericMonthYear(s string) (int, time.Month, bool) {
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		return validDate(atoi(m[2]), atoi(m[1]), 1)
	}
	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		return validDate(atoi(m[1]), atoi(m[2]), 1)
	}
	return 0, 0, false
}

func parseGenericDate(s string) (int, time.Month, bool) {
	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), t.Month(), true
		}
	}
	return 0, 0, false
}

func parseTextualMonthYear(s string) (int, time.Month, bool) {
	m := textualPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	month, ok := LookupMonthName(m[1])
	if !ok {
		return 0, 0, false
	}
	year := atoi(m[2])
	if len(m[2]) == 2 {
		year += 2000
	}
	return year, month, true
}

func validDate(year, month, day int) (int, time.Month, bool) {
	if month < 1 || month > 12 || day < 1 {
		return 0, 0, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// ParseMonth 依次尝试解析器，返回年份在允许列表内的第一个结果
func ParseMonth(label string, cfg model.DateConfig) (int, time.Month, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, 0, false
	}
	for _, p := range monthParsers {
		year, month, ok := p.parse(s)
		if ok && cfg.Allows(year) {
			return year, month, true
		}
	}
	return 0, 0, false
}

// ParseMonthDate 解析为当月第一天
func ParseMonthDate(label string, cfg model.DateConfig) (time.Time, bool) {
	year, month, ok := ParseMonth(label, cfg)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

// NormalizeMonthColumn 将表头规范为 Mmm/YY；ok=false 表示不是月份列
func NormalizeMonthColumn(label string, cfg model.DateConfig) (string, bool) {
	year, month, ok := ParseMonth(label, cfg)
	if !ok {
		return "", false
	}
	return FormatMonthLabel(year, month), true
}

// DetectMonthColumns 识别记录中的月份列，保持表头顺序
func DetectMonthColumns(r *model.Record, cfg model.DateConfig) []model.MonthColumn {
	return DetectMonthHeaders(r.Columns(), cfg)
}

// DetectMonthHeaders 识别表头中的月份列
func DetectMonthHeaders(headers []string, cfg model.DateConfig) []model.MonthColumn {
	var out []model.MonthColumn
	for _, h := range headers {
		year, month, ok := ParseMonth(h, cfg)
		if !ok {
			continue
		}
		out = append(out, model.MonthColumn{
			Header: h,
			Label:  FormatMonthLabel(year, month),
			Year:   year,
			Month:  month,
		})
	}
	return out
}
