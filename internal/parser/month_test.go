package parser

import (
	"testing"
	"time"

	"finhub/internal/model"
)

var cfg2025 = model.NewDateConfig(2025)

func TestNormalizeMonthColumn_Formats(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Jan/25":               "Jan/25",
		"jan/25":               "Jan/25",
		"feb/25":               "Fev/25",
		"Feb/25":               "Fev/25",
		"JAN/25":               "Jan/25",
		"2025-03-01":           "Mar/25",
		"03/04/2025":           "Abr/25",
		"12/31/2025":           "Dez/25",
		"05/2025":              "Mai/25",
		"2025-06":              "Jun/25",
		"2025/07":              "Jul/25",
		"março 2025":           "Mar/25",
		"Marco-25":             "Mar/25",
		"setembro_2025":        "Set/25",
		"Oct. 2025":            "Out/25",
		"December 2025":        "Dez/25",
		"fev.25":               "Fev/25",
		"2025-08-15T10:00:00Z": "Ago/25",
		"15-Nov-2025":          "Nov/25",
		"  Jun/25  ":           "Jun/25",
	}
	for in, want := range cases {
		got, ok := NormalizeMonthColumn(in, cfg2025)
		if !ok {
			t.Fatalf("%q not recognized", in)
		}
		if got != want {
			t.Fatalf("%q => %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeMonthColumn_Rejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"", "cod", "seg", "file", "total", "31/02/2025", "13/2025", "Jan/24", "2024-01-01", "abc 2025", "xjan 2025",
	} {
		if got, ok := NormalizeMonthColumn(in, cfg2025); ok {
			t.Fatalf("%q should be rejected, got %q", in, got)
		}
	}
}

func TestNormalizeMonthColumn_AllowedYears(t *testing.T) {
	t.Parallel()

	cfg := model.NewDateConfig(2025, 2024)
	got, ok := NormalizeMonthColumn("Dez/24", cfg)
	if !ok || got != "Dez/24" {
		t.Fatalf("Dez/24 with 2024 allowed => %q %v", got, ok)
	}
	if _, ok := NormalizeMonthColumn("Dez/23", cfg); ok {
		t.Fatalf("Dez/23 should be rejected")
	}
}

func TestNormalizeMonthColumn_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Jan/25", "feb/25", "2025-03-01", "03/04/2025", "março 2025", "December 2025"} {
		once, ok := NormalizeMonthColumn(in, cfg2025)
		if !ok {
			t.Fatalf("%q not recognized", in)
		}
		twice, ok := NormalizeMonthColumn(once, cfg2025)
		if !ok || twice != once {
			t.Fatalf("normalize(normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestParseMonthDate_FirstOfMonth(t *testing.T) {
	t.Parallel()

	d, ok := ParseMonthDate("Ago/25", cfg2025)
	if !ok {
		t.Fatalf("Ago/25 not parsed")
	}
	want := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Fatalf("got %v, want %v", d, want)
	}
}

func TestLookupMonthName(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Month{
		"janeiro": time.January,
		"Fev":     time.February,
		"MARÇO":   time.March,
		"marco":   time.March,
		"abr.":    time.April,
		"May":     time.May,
		"aug":     time.August,
		"dez":     time.December,
	}
	for in, want := range cases {
		got, ok := LookupMonthName(in)
		if !ok || got != want {
			t.Fatalf("%q => %v %v, want %v", in, got, ok, want)
		}
	}
	if _, ok := LookupMonthName("foo"); ok {
		t.Fatalf("foo should not be a month")
	}
}

func TestFormatMonthLabel(t *testing.T) {
	t.Parallel()

	if got := FormatMonthLabel(2025, time.September); got != "Set/25" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMonthLabel(2030, time.January); got != "Jan/30" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMonthLabel(2025, 13); got != "" {
		t.Fatalf("invalid month should format empty, got %q", got)
	}
}

func TestDetectMonthHeaders_KeepsHeaderOrder(t *testing.T) {
	t.Parallel()

	headers := []string{"cod", "seg", "file", "mar/25", "Jan/25", "2025-02-01", "total"}
	got := DetectMonthHeaders(headers, cfg2025)
	if len(got) != 3 {
		t.Fatalf("want 3 month columns, got %d: %+v", len(got), got)
	}
	wantHeaders := []string{"mar/25", "Jan/25", "2025-02-01"}
	wantLabels := []string{"Mar/25", "Jan/25", "Fev/25"}
	for i := range got {
		if got[i].Header != wantHeaders[i] || got[i].Label != wantLabels[i] {
			t.Fatalf("column %d = %+v", i, got[i])
		}
	}
}

func TestDetectMonthColumns_FromRecord(t *testing.T) {
	t.Parallel()

	r := model.RecordOf("cod", 1, "seg", "E1", "file", "Cards", "Jan/25", 10, "Fev/25", 20)
	got := DetectMonthColumns(r, cfg2025)
	if len(got) != 2 || got[0].Month != time.January || got[1].Month != time.February {
		t.Fatalf("unexpected columns: %+v", got)
	}
}

func TestStripAccents(t *testing.T) {
	t.Parallel()

	if got := StripAccents("março"); got != "marco" {
		t.Fatalf("got %q", got)
	}
	if got := StripAccents("plain"); got != "plain" {
		t.Fatalf("got %q", got)
	}
}
