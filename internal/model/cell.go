package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellBool
)

// Cell 工作表单元格的类型化取值
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Bool   bool
}

// NumberCell 数值单元格
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// TextCell 文本单元格
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// BoolCell 布尔单元格
func BoolCell(b bool) Cell {
	return Cell{Kind: CellBool, Bool: b}
}

// IsEmpty 是否为空值（缺失或 null）
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsFiniteNumber 是否为有限数值
func (c Cell) IsFiniteNumber() bool {
	return c.Kind == CellNumber && !math.IsNaN(c.Number) && !math.IsInf(c.Number, 0)
}

// TypeName 返回用于错误提示的类型名
func (c Cell) TypeName() string {
	switch c.Kind {
	case CellNumber:
		return "number"
	case CellText:
		return "string"
	case CellBool:
		return "boolean"
	default:
		return "undefined"
	}
}

// String 文本形式（数值按最短表示输出）
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// MarshalJSON 按原始类型输出 JSON
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		if !c.IsFiniteNumber() {
			return []byte("null"), nil
		}
		return json.Marshal(c.Number)
	case CellText:
		return json.Marshal(c.Text)
	case CellBool:
		return json.Marshal(c.Bool)
	default:
		return []byte("null"), nil
	}
}

// Record 以表头为键的一行数据，保留表头顺序
type Record struct {
	columns []string
	cells   map[string]Cell
}

// NewRecord 创建空记录
func NewRecord() *Record {
	return &Record{cells: make(map[string]Cell)}
}

// RecordOf 按给定顺序构造记录（测试与内存数据源使用）
func RecordOf(pairs ...any) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		r.Set(key, CellOf(pairs[i+1]))
	}
	return r
}

// CellOf 将 Go 值转换为单元格
func CellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case Cell:
		return x
	case float64:
		return NumberCell(x)
	case float32:
		return NumberCell(float64(x))
	case int:
		return NumberCell(float64(x))
	case int64:
		return NumberCell(float64(x))
	case string:
		return TextCell(x)
	case bool:
		return BoolCell(x)
	default:
		return Cell{}
	}
}

// Set 设置列值；已存在的列保持原有位置
func (r *Record) Set(column string, cell Cell) {
	if _, ok := r.cells[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.cells[column] = cell
}

// Get 读取列值，不存在时返回空单元格
func (r *Record) Get(column string) Cell {
	return r.cells[column]
}

// Has 是否包含该列
func (r *Record) Has(column string) bool {
	_, ok := r.cells[column]
	return ok
}

// Columns 列名（表头顺序）
func (r *Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Text 读取列的文本值
func (r *Record) Text(column string) string {
	return strings.TrimSpace(r.Get(column).String())
}

// Cod 读取业务编码，非整数时 ok=false
func (r *Record) Cod() (int64, bool) {
	c := r.Get(ColumnCod)
	switch c.Kind {
	case CellNumber:
		if !c.IsFiniteNumber() || c.Number != math.Trunc(c.Number) {
			return 0, false
		}
		return int64(c.Number), true
	case CellText:
		v, err := strconv.ParseInt(strings.TrimSpace(c.Text), 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// MarshalJSON 按表头顺序输出对象
func (r *Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := r.cells[col].MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
