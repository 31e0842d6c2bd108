package model

import "time"

// ValidationResult 校验结果
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidationResult 创建空的通过结果
func NewValidationResult() ValidationResult {
	return ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}}
}

// ResultOf 按错误/警告列表构造结果；有错误即不通过
func ResultOf(errors, warnings []string) ValidationResult {
	if errors == nil {
		errors = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return ValidationResult{IsValid: len(errors) == 0, Errors: errors, Warnings: warnings}
}

// Merge 合并结果：IsValid 取与，错误和警告按顺序拼接
func Merge(results ...ValidationResult) ValidationResult {
	out := NewValidationResult()
	for _, r := range results {
		out.IsValid = out.IsValid && r.IsValid
		out.Errors = append(out.Errors, r.Errors...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}
	return out
}

// Prefixed 为所有消息加上工作表名前缀
func (r ValidationResult) Prefixed(sheet string) ValidationResult {
	out := ValidationResult{
		IsValid:  r.IsValid,
		Errors:   make([]string, 0, len(r.Errors)),
		Warnings: make([]string, 0, len(r.Warnings)),
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, sheet+": "+e)
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, sheet+": "+w)
	}
	return out
}

// DateConfig 月份识别配置
type DateConfig struct {
	ExpectedYear int   `json:"expectedYear" toml:"expected_year"`
	AllowedYears []int `json:"allowedYears" toml:"allowed_years"`
}

// NewDateConfig 以 year 为期望年份，附加年份同样允许
func NewDateConfig(year int, additionalYears ...int) DateConfig {
	return DateConfig{
		ExpectedYear: year,
		AllowedYears: append([]int{year}, additionalYears...),
	}
}

// DefaultDateConfig 默认仅允许当前年份
func DefaultDateConfig() DateConfig {
	return NewDateConfig(time.Now().Year())
}

// Allows 年份是否在允许列表内
func (c DateConfig) Allows(year int) bool {
	years := c.AllowedYears
	if len(years) == 0 {
		years = []int{c.ExpectedYear}
	}
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

// BusinessConfig 业务规则配置
type BusinessConfig struct {
	MaxMonthlyVariation  float64 `json:"maxMonthlyVariation" toml:"max_monthly_variation"`
	AllowDuplicateCodSeg bool    `json:"allowDuplicateCodSeg" toml:"allow_duplicate_cod_seg"`
	MinimumNonZeroMonths int     `json:"minimumNonZeroMonths" toml:"minimum_non_zero_months"`
	// LegacyColumnOrder 为 true 时相邻月份按列顺序比较，否则按日历顺序
	LegacyColumnOrder bool `json:"legacyColumnOrder" toml:"legacy_column_order"`
}

// DefaultBusinessConfig 默认业务规则（500% 上限）
func DefaultBusinessConfig() BusinessConfig {
	return BusinessConfig{
		MaxMonthlyVariation:  5,
		AllowDuplicateCodSeg: false,
		MinimumNonZeroMonths: 1,
	}
}
