package exporter

import (
	"testing"

	"finhub/internal/analytics"
	"finhub/internal/model"
)

func exportResult(n int) *model.ProcessingResult {
	months := []string{"Jan/25", "Fev/25", "Mar/25", "Abr/25"}
	records := make([]model.UnpivotedRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.UnpivotedRecord{
			Cod:   int64(i/len(months) + 1),
			Seg:   "E1",
			File:  "Cards",
			Sheet: model.SheetResultado,
			Month: months[i%len(months)],
			Value: 1,
		})
	}
	return &model.ProcessingResult{
		Success:       true,
		RawData:       map[string][]model.FinancialRow{},
		UnpivotedData: records,
		Validation:    model.ResultOf([]string{"CONTABIL: Row 2: bad"}, []string{"Sheet FICTICIO is empty"}),
		MonthColumns:  months,
	}
}

func TestExport_Sheets(t *testing.T) {
	t.Parallel()

	e := NewExporter(model.NewDateConfig(2025))
	f, err := e.Export(exportResult(8), ExportOptions{SummaryPeriod: analytics.PeriodQuarter})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer func() { _ = f.Close() }()

	list := f.GetSheetList()
	if len(list) != 3 || list[0] != SheetData || list[1] != SheetSummary || list[2] != SheetValidation {
		t.Fatalf("sheets = %v", list)
	}

	rows, err := f.GetRows(SheetData)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("data rows = %d, want header + 8", len(rows))
	}
	if rows[0][0] != "cod" || rows[0][5] != "value" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][4] != "Jan/25" {
		t.Fatalf("first row = %v", rows[1])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// Q1 与 Q2 两个周期
	if len(summary) != 3 {
		t.Fatalf("summary rows = %v", summary)
	}
	if summary[1][1] != "2025-Q1" || summary[1][3] != "6" || summary[2][1] != "2025-Q2" || summary[2][3] != "2" {
		t.Fatalf("summary = %v", summary)
	}

	report, err := f.GetRows(SheetValidation)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(report) != 3 || report[1][0] != "error" || report[2][0] != "warning" {
		t.Fatalf("validation = %v", report)
	}
}

func TestExport_ProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	e := NewExporter(model.NewDateConfig(2025))
	f, err := e.Export(exportResult(1500), ExportOptions{Progress: func(ev ProgressEvent) {
		events = append(events, ev)
	}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer func() { _ = f.Close() }()

	if len(events) < 5 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Stage != stagePrepare || events[len(events)-1] != (ProgressEvent{Percent: 100, Stage: stageDone}) {
		t.Fatalf("events = %+v", events)
	}
	sawData := false
	for i, ev := range events {
		if ev.Stage == stageData {
			sawData = true
		}
		if i > 0 && ev.Percent < events[i-1].Percent {
			t.Fatalf("progress regressed at %d: %+v", i, events)
		}
	}
	if !sawData {
		t.Fatalf("no data progress reported: %+v", events)
	}
}

func TestExport_RejectsFailedResult(t *testing.T) {
	t.Parallel()

	e := NewExporter(model.NewDateConfig(2025))
	if _, err := e.Export(nil, ExportOptions{}); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := e.Export(model.FailedResult("boom"), ExportOptions{}); err == nil {
		t.Fatalf("expected error for failed result")
	}
}

func TestReportProgressClamps(t *testing.T) {
	t.Parallel()

	var got []int
	cb := func(ev ProgressEvent) { got = append(got, ev.Percent) }
	reportProgress(cb, -5, stagePrepare)
	reportProgress(cb, 150, stageDone)
	reportProgress(nil, 50, stageData)
	if len(got) != 2 || got[0] != 0 || got[1] != 100 {
		t.Fatalf("got %v", got)
	}
}
