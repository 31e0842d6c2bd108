package model

// Stage 处理阶段
type Stage string

const (
	StageReading             Stage = "reading"
	StageParsing             Stage = "parsing"
	StageValidatingStructure Stage = "validating_structure"
	StageValidatingData      Stage = "validating_data"
	StageValidatingBusiness  Stage = "validating_business"
	StageCrossValidating     Stage = "cross_validating"
	StageTransforming        Stage = "transforming"
	StageComplete            Stage = "complete"
	StageError               Stage = "error"
)

// IsTerminal 是否为终止阶段
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageError
}

// ProcessingProgress 进度快照
type ProcessingProgress struct {
	Stage     Stage  `json:"stage"`
	Progress  int    `json:"progress"`
	Message   string `json:"message"`
	SheetName string `json:"sheetName,omitempty"`
}

// ProcessingResult 一次处理的最终结果
type ProcessingResult struct {
	Success       bool                      `json:"success"`
	RawData       map[string][]FinancialRow `json:"rawData"`
	UnpivotedData []UnpivotedRecord         `json:"unpivotedData"`
	Validation    ValidationResult          `json:"validation"`
	MonthColumns  []string                  `json:"monthColumns"`
	Error         string                    `json:"error,omitempty"`
}

// FailedResult 结构性失败时的默认结果
func FailedResult(message string) *ProcessingResult {
	return &ProcessingResult{
		Success:       false,
		RawData:       map[string][]FinancialRow{},
		UnpivotedData: []UnpivotedRecord{},
		Validation: ValidationResult{
			IsValid:  false,
			Errors:   []string{message},
			Warnings: []string{},
		},
		MonthColumns: []string{},
		Error:        message,
	}
}
