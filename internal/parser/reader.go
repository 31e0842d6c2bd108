package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"finhub/internal/model"
)

// OpenWorkbook 从内存字节打开工作簿
func OpenWorkbook(data []byte) (*excelize.File, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty workbook")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	return f, nil
}

// ReadSheet 将工作表转换为以表头为键的记录
// 第一行是表头；全空行被跳过；空单元格保留为空值
func ReadSheet(f *excelize.File, sheetName string) ([]*model.Record, error) {
	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	defer rows.Close()

	var headers []string
	var records []*model.Record
	rowNum := 0

	for rows.Next() {
		rowNum++

		if headers == nil {
			cols, err := rows.Columns()
			if err != nil {
				return nil, fmt.Errorf("failed to read header of %s: %w", sheetName, err)
			}
			headers = make([]string, len(cols))
			for i, c := range cols {
				headers[i] = NormalizeHeader(c)
			}
			continue
		}

		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d of %s: %w", rowNum, sheetName, err)
		}

		record := model.NewRecord()
		hasData := false
		for colIdx, header := range headers {
			if header == "" {
				continue
			}
			raw := ""
			if colIdx < len(cols) {
				raw = cols[colIdx]
			}
			cell := model.Cell{}
			if raw != "" {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
				if err != nil {
					return nil, err
				}
				cellType, err := f.GetCellType(sheetName, cellName)
				if err != nil {
					return nil, fmt.Errorf("failed to read cell %s of %s: %w", cellName, sheetName, err)
				}
				cell = classifyCell(cellType, raw)
				hasData = true
			}
			record.Set(header, cell)
		}
		if hasData {
			records = append(records, record)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", sheetName, err)
	}

	return records, nil
}

// classifyCell 按单元格类型还原取值
func classifyCell(cellType excelize.CellType, raw string) model.Cell {
	switch cellType {
	case excelize.CellTypeBool:
		v := strings.ToUpper(strings.TrimSpace(raw))
		return model.BoolCell(v == "1" || v == "TRUE")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return model.NumberCell(f)
		}
		return model.TextCell(raw)
	default:
		return model.TextCell(raw)
	}
}

// NormalizeHeader 规范化表头：去除首尾空白与换行
func NormalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", " ")
	return strings.TrimSpace(name)
}
