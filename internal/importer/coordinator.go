package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"finhub/internal/model"
	"finhub/internal/parser"
	"finhub/internal/validation"
)

// 结构性错误，出现即终止处理
var (
	ErrWorkbookUnreadable = errors.New("failed to read workbook")
	ErrMissingSheets      = errors.New("required sheets not found")
	ErrMissingWorksheet   = errors.New("worksheet not found")
	ErrNoMonthColumns     = errors.New("no month column found in the expected format")
)

// ProgressSink 进度写入端（只写）
type ProgressSink interface {
	SetProgress(jobID string, progress model.ProcessingProgress)
}

// ResultSink 最终结果写入端
type ResultSink interface {
	SetResult(jobID string, result *model.ProcessingResult)
}

// SinkFunc 函数形式的进度写入端
type SinkFunc func(jobID string, progress model.ProcessingProgress)

// SetProgress 实现 ProgressSink
func (f SinkFunc) SetProgress(jobID string, progress model.ProcessingProgress) {
	f(jobID, progress)
}

// Options 处理选项
type Options struct {
	DateConfig     model.DateConfig
	BusinessConfig model.BusinessConfig
	// SkipCrossValidation 为 true 时 cross_validating 阶段不做检查
	SkipCrossValidation bool
}

// DefaultOptions 默认处理选项
func DefaultOptions() Options {
	return Options{
		DateConfig:     model.DefaultDateConfig(),
		BusinessConfig: model.DefaultBusinessConfig(),
	}
}

// Coordinator 处理协调器：按阶段驱动读取、校验与转换
type Coordinator struct {
	sink ProgressSink
	opts Options
}

// NewCoordinator 创建处理协调器；sink 可为 nil
func NewCoordinator(sink ProgressSink, opts Options) *Coordinator {
	return &Coordinator{sink: sink, opts: opts}
}

// importContext 单个任务的可变状态，不在任务之间共享
type importContext struct {
	ctx          context.Context
	jobID        string
	file         *excelize.File
	startTime    time.Time
	sheets       []model.SheetData
	months       []model.MonthColumn
	validation   model.ValidationResult
	lastProgress int
}

// Process 同步执行完整流程，结构性错误以 Success=false 返回
func (c *Coordinator) Process(ctx context.Context, jobID string, data []byte) *model.ProcessingResult {
	ic := &importContext{
		ctx:        ctx,
		jobID:      jobID,
		startTime:  time.Now(),
		validation: model.NewValidationResult(),
	}

	log.Printf("[importer] job %s: started (%d bytes)", jobID, len(data))

	result, err := c.run(ic, data)
	if ic.file != nil {
		_ = ic.file.Close()
	}
	if err != nil {
		msg := err.Error()
		log.Printf("[importer] job %s: failed after %s: %s", jobID, time.Since(ic.startTime), msg)
		c.emit(ic, model.ProcessingProgress{Stage: model.StageError, Progress: 0, Message: msg})
		return model.FailedResult(msg)
	}

	log.Printf("[importer] job %s: complete in %s, %d records, valid=%t, %d errors, %d warnings",
		jobID, time.Since(ic.startTime), len(result.UnpivotedData), result.Validation.IsValid,
		len(result.Validation.Errors), len(result.Validation.Warnings))
	return result
}

func (c *Coordinator) run(ic *importContext, data []byte) (*model.ProcessingResult, error) {
	// reading
	c.report(ic, model.StageReading, 10, "Reading Excel file...", "")
	file, err := parser.OpenWorkbook(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	ic.file = file
	if err := checkCancelled(ic); err != nil {
		return nil, err
	}

	// parsing
	c.report(ic, model.StageParsing, 20, "Analyzing sheets...", "")
	available := make(map[string]struct{})
	for _, name := range file.GetSheetList() {
		available[name] = struct{}{}
	}
	var missing []string
	for _, name := range model.RequiredSheets {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheets, strings.Join(missing, ", "))
	}

	// validating_structure
	for i, sheetName := range model.RequiredSheets {
		if err := checkCancelled(ic); err != nil {
			return nil, err
		}
		if err := c.ingestSheet(ic, i, sheetName); err != nil {
			return nil, err
		}
	}

	if err := checkCancelled(ic); err != nil {
		return nil, err
	}

	// validating_data
	c.report(ic, model.StageValidatingData, 70, "Validating data types...", "")
	headers := model.MonthHeaders(ic.months)
	for _, sheet := range ic.sheets {
		r := validation.ValidateDataTypes(sheet.Records, headers)
		ic.validation = model.Merge(ic.validation, r.Prefixed(sheet.Name))
	}

	if err := checkCancelled(ic); err != nil {
		return nil, err
	}

	// validating_business
	c.report(ic, model.StageValidatingBusiness, 80, "Validating business rules...", "")
	for _, sheet := range ic.sheets {
		r := validation.ValidateBusinessRules(sheet.Records, ic.months, c.opts.BusinessConfig)
		ic.validation = model.Merge(ic.validation, r.Prefixed(sheet.Name))
	}

	if err := checkCancelled(ic); err != nil {
		return nil, err
	}

	// cross_validating：只产生警告
	c.report(ic, model.StageCrossValidating, 85, "Validating consistency across sheets...", "")
	if !c.opts.SkipCrossValidation {
		cross := validation.ValidateCrossSheet(ic.sheets)
		ic.validation.Warnings = append(ic.validation.Warnings, cross.Warnings...)
	}

	if err := checkCancelled(ic); err != nil {
		return nil, err
	}

	// transforming
	c.report(ic, model.StageTransforming, 90, "Transforming data...", "")
	unpivoted := Unpivot(ic.sheets, ic.months, c.opts.DateConfig)

	result := &model.ProcessingResult{
		Success:       true,
		RawData:       buildRawData(ic.sheets, ic.months),
		UnpivotedData: unpivoted,
		Validation:    ic.validation,
		MonthColumns:  monthLabels(ic.months),
	}

	c.report(ic, model.StageComplete, 100, fmt.Sprintf("Processing complete! %d records processed.", len(unpivoted)), "")
	return result, nil
}

// ingestSheet 读取单个必需工作表、识别月份列并做结构校验
func (c *Coordinator) ingestSheet(ic *importContext, index int, sheetName string) error {
	c.report(ic, model.StageValidatingStructure, 25+index*10, fmt.Sprintf("Processing sheet %s...", sheetName), sheetName)

	if idx, err := ic.file.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return fmt.Errorf("%w: %s", ErrMissingWorksheet, sheetName)
	}
	records, err := parser.ReadSheet(ic.file, sheetName)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingWorksheet, sheetName, err)
	}

	if len(records) == 0 {
		ic.validation.Warnings = append(ic.validation.Warnings, fmt.Sprintf("Sheet %s is empty", sheetName))
		return nil
	}

	// 月份列只在第一个有数据的工作表上识别，后续工作表沿用
	if ic.months == nil {
		ic.months = parser.DetectMonthColumns(records[0], c.opts.DateConfig)
		if len(ic.months) == 0 {
			return ErrNoMonthColumns
		}
	}

	c.report(ic, model.StageValidatingStructure, 30+index*10, fmt.Sprintf("Validating structure of sheet %s...", sheetName), sheetName)

	required := append(append([]string{}, model.RequiredColumns...), model.MonthHeaders(ic.months)...)
	structure := validation.ValidateRequiredColumns(records, required, c.opts.DateConfig)
	ic.validation = model.Merge(ic.validation, structure.Prefixed(sheetName))

	for _, r := range records {
		r.Set(model.ColumnSheet, model.TextCell(sheetName))
	}
	ic.sheets = append(ic.sheets, model.SheetData{Name: sheetName, Records: records})
	return nil
}

// report 发送非终止阶段进度，保证进度不回退
func (c *Coordinator) report(ic *importContext, stage model.Stage, progress int, message, sheetName string) {
	if progress < ic.lastProgress {
		progress = ic.lastProgress
	}
	ic.lastProgress = progress
	c.emit(ic, model.ProcessingProgress{
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		SheetName: sheetName,
	})
}

func (c *Coordinator) emit(ic *importContext, p model.ProcessingProgress) {
	if c.sink == nil {
		return
	}
	c.sink.SetProgress(ic.jobID, p)
}

func checkCancelled(ic *importContext) error {
	if ic.ctx == nil {
		return nil
	}
	if err := ic.ctx.Err(); err != nil {
		return fmt.Errorf("processing cancelled: %w", err)
	}
	return nil
}

func buildRawData(sheets []model.SheetData, months []model.MonthColumn) map[string][]model.FinancialRow {
	out := make(map[string][]model.FinancialRow, len(sheets))
	for _, s := range sheets {
		rows := make([]model.FinancialRow, 0, len(s.Records))
		for _, r := range s.Records {
			rows = append(rows, model.NewFinancialRow(r, s.Name, months))
		}
		out[s.Name] = rows
	}
	return out
}

func monthLabels(months []model.MonthColumn) []string {
	out := make([]string, 0, len(months))
	seen := make(map[string]struct{}, len(months))
	for _, m := range months {
		if _, ok := seen[m.Label]; ok {
			continue
		}
		seen[m.Label] = struct{}{}
		out = append(out, m.Label)
	}
	return out
}
