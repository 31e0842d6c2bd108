package analytics

import (
	"reflect"
	"testing"

	"finhub/internal/model"
)

var cfg = model.NewDateConfig(2025, 2024)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Period{
		"":         PeriodMonth,
		"month":    PeriodMonth,
		"quarter":  PeriodQuarter,
		"semester": PeriodSemester,
		"year":     PeriodYear,
	} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Fatalf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("week"); err == nil || err.Error() != "unsupported period: week" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGroupMonthsByPeriod_Quarter(t *testing.T) {
	t.Parallel()

	months := []string{"Abr/25", "Jan/25", "Fev/25", "garbage", "Mar/25", "Dez/24"}
	got := GroupMonthsByPeriod(months, PeriodQuarter, cfg)

	want := []FinancialPeriod{
		{ID: "2024-Q4", Label: "Q4 2024", Months: []string{"Dez/24"}, Order: 2024*4 + 3},
		{ID: "2025-Q1", Label: "Q1 2025", Months: []string{"Jan/25", "Fev/25", "Mar/25"}, Order: 2025 * 4},
		{ID: "2025-Q2", Label: "Q2 2025", Months: []string{"Abr/25"}, Order: 2025*4 + 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestGroupMonthsByPeriod_SemesterAndYear(t *testing.T) {
	t.Parallel()

	months := []string{"Jan/25", "Jul/25", "Jun/25", "Dez/24"}

	sem := GroupMonthsByPeriod(months, PeriodSemester, cfg)
	if len(sem) != 3 || sem[0].ID != "2024-S2" || sem[1].Label != "1º Sem 2025" || len(sem[1].Months) != 2 {
		t.Fatalf("semesters = %+v", sem)
	}

	years := GroupMonthsByPeriod(months, PeriodYear, cfg)
	if len(years) != 2 || years[0].ID != "2024" || len(years[1].Months) != 3 {
		t.Fatalf("years = %+v", years)
	}

	monthly := GroupMonthsByPeriod(months, PeriodMonth, cfg)
	if len(monthly) != 4 || monthly[0].ID != "2024-12" || monthly[3].Label != "Jul/25" {
		t.Fatalf("months = %+v", monthly)
	}
}

func TestSortedMonths(t *testing.T) {
	t.Parallel()

	got := SortedMonths([]string{"Mar/25", "x", "Jan/25", "Dez/24"}, cfg)
	want := []string{"Dez/24", "Jan/25", "Mar/25"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPreviousPeriod(t *testing.T) {
	t.Parallel()

	cases := []struct {
		month  string
		period Period
		want   string
	}{
		{"Jan/25", PeriodMonth, "Dez/24"},
		{"Mai/25", PeriodQuarter, "Fev/25"},
		{"Mar/25", PeriodSemester, "Set/24"},
		{"Abr/25", PeriodYear, "Abr/24"},
	}
	for _, tc := range cases {
		got, ok := PreviousPeriod(tc.month, tc.period, cfg)
		if !ok || got != tc.want {
			t.Fatalf("PreviousPeriod(%s, %s) = %q %v, want %q", tc.month, tc.period, got, ok, tc.want)
		}
	}
	if _, ok := PreviousPeriod("nope", PeriodMonth, cfg); ok {
		t.Fatalf("unparseable month should fail")
	}
}
