package validation

import "testing"

func TestValidateFileType(t *testing.T) {
	t.Parallel()

	accepted := []string{"data.xlsx", "DATA.XLSX", " report.Xlsx "}
	for _, name := range accepted {
		if !ValidateFileType(name) {
			t.Fatalf("%q should be accepted", name)
		}
	}
	rejected := []string{"data.xls", "data.csv", "xlsx", "data.xlsx.zip", ""}
	for _, name := range rejected {
		if ValidateFileType(name) {
			t.Fatalf("%q should be rejected", name)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{
		0:       "0 Bytes",
		512:     "512 Bytes",
		1024:    "1 KB",
		1536:    "1.5 KB",
		1048576: "1 MB",
		5 << 30: "5 GB",
		3 << 40: "3072 GB",
	}
	for in, want := range cases {
		if got := FormatFileSize(in); got != want {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}
