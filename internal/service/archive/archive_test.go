package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finhub/internal/model"
)

func TestSaveUploadAndReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(filepath.Join(dir, "uploads"), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.SaveUpload("job-1", []byte("PK")); err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "uploads", "job-1", uploadFileName))
	if err != nil || string(data) != "PK" {
		t.Fatalf("upload = %q, %v", data, err)
	}

	result := &model.ProcessingResult{
		Success:       true,
		UnpivotedData: []model.UnpivotedRecord{{Cod: 1, Month: "Jan/25", Value: 1}},
		Validation:    model.ResultOf(nil, []string{"w"}),
		MonthColumns:  []string{"Jan/25"},
	}
	if err := a.SaveReport(NewReport("job-1", "data.xlsx", 2, result)); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := a.LoadReport("job-1")
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if !got.Success || got.Records != 1 || got.FileName != "data.xlsx" || len(got.Validation.Warnings) != 1 {
		t.Fatalf("report = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads", "job-1", reportFileName+".tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	if err := a.Remove("job-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := a.LoadReport("job-1"); err == nil {
		t.Fatalf("report should be gone")
	}
}

func TestRejectsUnsafeJobID(t *testing.T) {
	t.Parallel()

	a, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"", "../etc", "a/b", "job 1"} {
		if err := a.SaveUpload(id, []byte("x")); !errors.Is(err, ErrInvalidJobID) {
			t.Fatalf("SaveUpload(%q) = %v", id, err)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"old", "fresh"} {
		if err := a.SaveUpload(id, []byte("x")); err != nil {
			t.Fatalf("SaveUpload: %v", err)
		}
	}
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if n := a.PurgeExpired(now); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "old")); !os.IsNotExist(err) {
		t.Fatalf("old archive still present")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh")); err != nil {
		t.Fatalf("fresh archive removed: %v", err)
	}

	keep, _ := New(t.TempDir(), 0)
	if n := keep.PurgeExpired(now.Add(1000 * time.Hour)); n != 0 {
		t.Fatalf("zero retention purged %d", n)
	}
}

func TestNewReportWithoutResult(t *testing.T) {
	t.Parallel()

	r := NewReport("job-1", "a.xlsx", 10, nil)
	if r.Success || r.Records != 0 || r.ArchivedAt.IsZero() {
		t.Fatalf("report = %+v", r)
	}
}
