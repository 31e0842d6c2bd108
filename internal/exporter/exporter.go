package exporter

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"finhub/internal/analytics"
	"finhub/internal/model"
)

const (
	SheetData       = "DADOS"
	SheetSummary    = "RESUMO"
	SheetValidation = "VALIDACAO"
)

// progressEvery 每写入多少行上报一次进度
const progressEvery = 500

var dataHeaders = []string{"cod", "seg", "file", "sheet", "month", "value"}

// Exporter 处理结果导出器：窄表数据、周期汇总与校验报告
type Exporter struct {
	cfg model.DateConfig
}

// NewExporter 创建导出器；cfg 用于解析月份标签
func NewExporter(cfg model.DateConfig) *Exporter {
	return &Exporter{cfg: cfg}
}

// ExportOptions 导出选项
type ExportOptions struct {
	// SummaryPeriod 汇总表的分组周期，为空时按月
	SummaryPeriod analytics.Period
	Progress      func(ProgressEvent)
}

// Export 导出 Excel
func (e *Exporter) Export(result *model.ProcessingResult, opts ExportOptions) (*excelize.File, error) {
	if result == nil {
		return nil, errors.New("nothing to export")
	}
	if !result.Success {
		return nil, fmt.Errorf("cannot export failed result: %s", result.Error)
	}
	period := opts.SummaryPeriod
	if period == "" {
		period = analytics.PeriodMonth
	}

	reportProgress(opts.Progress, 0, stagePrepare)

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style failed: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.writeData(f, result.UnpivotedData, headerStyle, opts.Progress); err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(opts.Progress, 80, stageSummary)
	totals := analytics.SummarizeByPeriod(result.UnpivotedData, period, e.cfg)
	if err := writeSummary(f, totals, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(opts.Progress, 90, stageValidation)
	if err := writeValidation(f, result.Validation, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, stageDone)
	return f, nil
}

func (e *Exporter) writeData(f *excelize.File, records []model.UnpivotedRecord, headerStyle int, progress func(ProgressEvent)) error {
	if err := writeHeader(f, SheetData, dataHeaders, headerStyle); err != nil {
		return err
	}

	total := len(records)
	for i, r := range records {
		row := i + 2
		values := []interface{}{r.Cod, r.Seg, r.File, r.Sheet, r.Month, r.Value}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetData, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d failed: %w", SheetData, row, err)
		}
		if (i+1)%progressEvery == 0 {
			// 数据写入占 5%-75%
			reportProgress(progress, 5+(i+1)*70/total, stageData)
		}
	}

	_ = f.SetColWidth(SheetData, "A", "A", 12)
	_ = f.SetColWidth(SheetData, "B", "E", 14)
	_ = f.SetColWidth(SheetData, "F", "F", 18)
	return nil
}

func writeSummary(f *excelize.File, totals []analytics.PeriodTotal, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := writeHeader(f, SheetSummary, []string{"sheet", "period", "label", "total", "records"}, headerStyle); err != nil {
		return err
	}
	for i, t := range totals {
		values := []interface{}{t.Sheet, t.Period, t.Label, t.Total, t.Records}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d failed: %w", SheetSummary, i+2, err)
		}
	}
	_ = f.SetColWidth(SheetSummary, "A", "C", 16)
	_ = f.SetColWidth(SheetSummary, "D", "E", 18)
	return nil
}

func writeValidation(f *excelize.File, v model.ValidationResult, headerStyle int) error {
	if _, err := f.NewSheet(SheetValidation); err != nil {
		return err
	}
	if err := writeHeader(f, SheetValidation, []string{"type", "message"}, headerStyle); err != nil {
		return err
	}

	row := 2
	write := func(kind, msg string) error {
		values := []interface{}{kind, msg}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		return f.SetSheetRow(SheetValidation, cell, &values)
	}
	for _, msg := range v.Errors {
		if err := write("error", msg); err != nil {
			return err
		}
	}
	for _, msg := range v.Warnings {
		if err := write("warning", msg); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetValidation, "A", "A", 10)
	_ = f.SetColWidth(SheetValidation, "B", "B", 100)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}
