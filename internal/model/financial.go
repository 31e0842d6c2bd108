package model

import "time"

// 固定列名
const (
	ColumnCod   = "cod"
	ColumnSeg   = "seg"
	ColumnFile  = "file"
	ColumnSheet = "sheet"
)

// 必需工作表（顺序决定处理与进度插值顺序）
const (
	SheetResultado  = "RESULTADO"
	SheetContabil   = "CONTABIL"
	SheetFicticio   = "FICTICIO"
	SheetSaldoMedio = "SALDO_MEDIO"
	SheetSaldoPonta = "SALDO_PONTA"
)

// RequiredSheets 必需工作表，按规范顺序
var RequiredSheets = []string{
	SheetResultado,
	SheetContabil,
	SheetFicticio,
	SheetSaldoMedio,
	SheetSaldoPonta,
}

// RequiredColumns 必需的静态列（月份列在运行时识别）
var RequiredColumns = []string{ColumnCod, ColumnSeg, ColumnFile}

// RequiredSegments 合法的分部编码
var RequiredSegments = []string{
	"E1", "E2", "E3", "E4", "E5", "E6",
	"S1", "S2", "S3", "S4", "S5", "S6",
}

// RequiredFiles 合法的业务领域名称
var RequiredFiles = []string{
	"Cards", "Loans", "Insurance", "Investments", "Savings", "Payments",
}

// MonthColumn 识别出的月份列：原始表头 + 规范标签
type MonthColumn struct {
	Header string     `json:"header"`
	Label  string     `json:"label"`
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
}

// Before 按日历顺序比较
func (m MonthColumn) Before(other MonthColumn) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// MonthHeaders 原始表头列表
func MonthHeaders(cols []MonthColumn) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Header)
	}
	return out
}

// SheetData 单个工作表的已标记数据
type SheetData struct {
	Name    string    `json:"name"`
	Records []*Record `json:"records"`
}

// FinancialRow 宽表行：固定前缀字段 + 月份标签到数值的映射
type FinancialRow struct {
	Cod    int64              `json:"cod"`
	Seg    string             `json:"seg"`
	File   string             `json:"file"`
	Sheet  string             `json:"sheet"`
	Months map[string]float64 `json:"months"`
}

// NewFinancialRow 由记录组装宽表行；多个表头归一到同一月份时后写覆盖
func NewFinancialRow(r *Record, sheet string, months []MonthColumn) FinancialRow {
	cod, _ := r.Cod()
	row := FinancialRow{
		Cod:    cod,
		Seg:    r.Text(ColumnSeg),
		File:   r.Text(ColumnFile),
		Sheet:  sheet,
		Months: make(map[string]float64, len(months)),
	}
	for _, m := range months {
		c := r.Get(m.Header)
		if c.IsFiniteNumber() {
			row.Months[m.Label] = c.Number
		}
	}
	return row
}

// UnpivotedRecord 窄表记录：每个 (行, 月份) 一条
type UnpivotedRecord struct {
	Cod   int64   `json:"cod"`
	Seg   string  `json:"seg"`
	File  string  `json:"file"`
	Sheet string  `json:"sheet"`
	Month string  `json:"month"`
	Value float64 `json:"value"`
}
