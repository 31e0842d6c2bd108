package validation

import (
	"strings"
	"testing"
	"time"

	"finhub/internal/model"
)

func monthCols(labels ...string) []model.MonthColumn {
	var out []model.MonthColumn
	for _, l := range labels {
		var m time.Month
		switch l {
		case "Jan/25":
			m = time.January
		case "Fev/25":
			m = time.February
		case "Mar/25":
			m = time.March
		}
		out = append(out, model.MonthColumn{Header: l, Label: l, Year: 2025, Month: m})
	}
	return out
}

func TestValidateUniqueness_Duplicate(t *testing.T) {
	t.Parallel()

	rows := []*model.Record{
		validRow(1, "E1"),
		validRow(2, "E1"),
		validRow(3, "E1"),
		validRow(1, "E1"),
	}
	r := ValidateUniqueness(rows, model.DefaultBusinessConfig())
	if r.IsValid || len(r.Errors) != 1 {
		t.Fatalf("errors = %v", r.Errors)
	}
	want := "Row 5: duplicate cod+seg combination: 1-E1 (first occurrence at row 2)"
	if r.Errors[0] != want {
		t.Fatalf("got %q, want %q", r.Errors[0], want)
	}
}

func TestValidateUniqueness_AllowDuplicates(t *testing.T) {
	t.Parallel()

	cfg := model.DefaultBusinessConfig()
	cfg.AllowDuplicateCodSeg = true
	r := ValidateUniqueness([]*model.Record{validRow(1, "E1"), validRow(1, "E1")}, cfg)
	if !r.IsValid {
		t.Fatalf("duplicates allowed but got %v", r.Errors)
	}
}

func TestValidateMonthlyVariation_Abrupt(t *testing.T) {
	t.Parallel()

	row := model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 100, "Fev/25", 1000)
	r := ValidateMonthlyVariation([]*model.Record{row}, monthCols("Jan/25", "Fev/25"), model.DefaultBusinessConfig())
	if !r.IsValid {
		t.Fatalf("variation must only warn")
	}
	var abrupt bool
	for _, w := range r.Warnings {
		if strings.HasPrefix(w, "Row 2: abrupt variation detected between consecutive months (900.0%)") {
			abrupt = true
		}
	}
	if !abrupt {
		t.Fatalf("missing abrupt warning: %v", r.Warnings)
	}
}

func TestValidateMonthlyVariation_Stable(t *testing.T) {
	t.Parallel()

	row := model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 100, "Fev/25", 120, "Mar/25", 110)
	r := ValidateMonthlyVariation([]*model.Record{row}, monthCols("Jan/25", "Fev/25", "Mar/25"), model.DefaultBusinessConfig())
	if len(r.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", r.Warnings)
	}
}

func TestValidateMonthlyVariation_FewNonZero(t *testing.T) {
	t.Parallel()

	row := model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 0, "Fev/25", 0)
	r := ValidateMonthlyVariation([]*model.Record{row}, monthCols("Jan/25", "Fev/25"), model.DefaultBusinessConfig())
	if len(r.Warnings) != 1 || r.Warnings[0] != "Row 2: few months with non-zero values (0)" {
		t.Fatalf("warnings = %v", r.Warnings)
	}
}

func TestValidateMonthlyVariation_CalendarOrder(t *testing.T) {
	t.Parallel()

	// 列顺序 Jan, Mar, Fev；日历顺序下 100 -> 100 -> 10 只有一次下降
	row := model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 100, "Mar/25", 10, "Fev/25", 100)
	cols := monthCols("Jan/25", "Mar/25", "Fev/25")

	cfg := model.DefaultBusinessConfig()
	cfg.MaxMonthlyVariation = 2
	if r := ValidateMonthlyVariation([]*model.Record{row}, cols, cfg); len(r.Warnings) != 0 {
		t.Fatalf("calendar order should be stable: %v", r.Warnings)
	}

	cfg.LegacyColumnOrder = true
	if r := ValidateMonthlyVariation([]*model.Record{row}, cols, cfg); len(r.Warnings) == 0 {
		t.Fatalf("column order should flag the 10 -> 100 jump")
	}
}

func TestValidateBusinessRules_Merges(t *testing.T) {
	t.Parallel()

	rows := []*model.Record{
		model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 0),
		model.RecordOf("cod", 1, "seg", "E1", "Jan/25", 5),
	}
	r := ValidateBusinessRules(rows, monthCols("Jan/25"), model.DefaultBusinessConfig())
	if r.IsValid || len(r.Errors) != 1 || len(r.Warnings) != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestValidateCrossSheet(t *testing.T) {
	t.Parallel()

	sheets := []model.SheetData{
		{Name: "RESULTADO", Records: []*model.Record{validRow(1, "E1"), validRow(2, "E2")}},
		{Name: "CONTABIL", Records: []*model.Record{validRow(1, "E1"), validRow(3, "E3")}},
	}
	r := ValidateCrossSheet(sheets)
	if !r.IsValid || len(r.Errors) != 0 {
		t.Fatalf("cross-sheet must only warn: %+v", r)
	}
	want := []string{
		"combination 2-E2 present in RESULTADO but missing in CONTABIL",
		"combination 3-E3 present in CONTABIL but missing in RESULTADO",
	}
	if len(r.Warnings) != len(want) {
		t.Fatalf("warnings = %v", r.Warnings)
	}
	for i := range want {
		if r.Warnings[i] != want[i] {
			t.Fatalf("warning %d = %q, want %q", i, r.Warnings[i], want[i])
		}
	}

	if r := ValidateCrossSheet(sheets[:1]); len(r.Warnings) != 0 {
		t.Fatalf("single sheet should not warn")
	}
}
