package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/schollz/closestmatch"

	"finhub/internal/model"
	"finhub/internal/parser"
)

// ValidateRequiredColumns 校验必需列是否存在，并提示多余列
// 实际列只取第一行（同一工作表的结构视为一致）
func ValidateRequiredColumns(rows []*model.Record, requiredColumns []string, cfg model.DateConfig) model.ValidationResult {
	var errors, warnings []string

	if len(rows) == 0 {
		return model.ResultOf([]string{"file contains no data"}, nil)
	}

	actual := rows[0].Columns()
	actualSet := make(map[string]struct{}, len(actual))
	for _, col := range actual {
		actualSet[col] = struct{}{}
	}
	requiredSet := make(map[string]struct{}, len(requiredColumns))
	for _, col := range requiredColumns {
		requiredSet[col] = struct{}{}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := actualSet[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errors = append(errors, fmt.Sprintf("required columns not found: %s", strings.Join(missing, ", ")))
	}

	var extra []string
	for _, col := range actual {
		if _, ok := requiredSet[col]; ok {
			continue
		}
		if _, ok := parser.NormalizeMonthColumn(col, cfg); ok {
			continue
		}
		extra = append(extra, col)
	}
	if len(extra) > 0 {
		warnings = append(warnings, fmt.Sprintf("extra columns found: %s", strings.Join(extra, ", ")))
	}

	return model.ResultOf(errors, warnings)
}

// enumField 枚举字段的合法取值
type enumField struct {
	name    string
	allowed []string
	set     map[string]struct{}
	matcher *closestmatch.ClosestMatch
}

func newEnumField(name string, allowed []string) *enumField {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return &enumField{
		name:    name,
		allowed: allowed,
		set:     set,
		matcher: closestmatch.New(allowed, []int{1, 2, 3}),
	}
}

var (
	segField   = newEnumField(model.ColumnSeg, model.RequiredSegments)
	fileField  = newEnumField(model.ColumnFile, model.RequiredFiles)
	sheetField = newEnumField(model.ColumnSheet, model.RequiredSheets)
)

// check 校验单元格取值，返回错误描述；合法时返回空串
func (f *enumField) check(c model.Cell) string {
	var msg string
	switch {
	case c.IsEmpty():
		msg = "Required"
	case c.Kind != model.CellText:
		msg = fmt.Sprintf("Expected string, received %s", c.TypeName())
	default:
		if _, ok := f.set[c.Text]; ok {
			return ""
		}
		msg = fmt.Sprintf("Invalid enum value '%s'", c.Text)
		if hint := f.matcher.Closest(c.Text); hint != "" && hint != c.Text {
			msg += fmt.Sprintf(" (did you mean '%s'?)", hint)
		}
	}
	return fmt.Sprintf("%s. Expected values: [%s]", msg, strings.Join(f.allowed, ", "))
}

// checkCod 业务编码必须为正整数
func checkCod(c model.Cell) string {
	switch {
	case c.IsEmpty():
		return "Required"
	case c.Kind != model.CellNumber:
		return fmt.Sprintf("Expected number, received %s", c.TypeName())
	case !c.IsFiniteNumber():
		return "Expected number, received nan"
	case c.Number != math.Trunc(c.Number):
		return "Expected integer, received float"
	case c.Number <= 0:
		return "Number must be greater than 0"
	}
	return ""
}

// ValidateDataTypes 逐行校验字段类型与取值范围，不提前退出
// 行号从 2 开始（第 1 行为表头）
func ValidateDataTypes(rows []*model.Record, monthColumns []string) model.ValidationResult {
	var errors []string

	for idx, row := range rows {
		rowNum := idx + 2

		if msg := checkCod(row.Get(model.ColumnCod)); msg != "" {
			errors = append(errors, fmt.Sprintf("Row %d: %s - %s", rowNum, model.ColumnCod, msg))
		}
		for _, f := range []*enumField{segField, fileField, sheetField} {
			if msg := f.check(row.Get(f.name)); msg != "" {
				errors = append(errors, fmt.Sprintf("Row %d: %s - %s", rowNum, f.name, msg))
			}
		}

		for _, month := range monthColumns {
			c := row.Get(month)
			if c.IsEmpty() {
				continue
			}
			if !c.IsFiniteNumber() {
				errors = append(errors, fmt.Sprintf("Row %d: '%s' must be a numeric value, found '%s'", rowNum, month, c.TypeName()))
			}
		}
	}

	return model.ResultOf(errors, nil)
}
