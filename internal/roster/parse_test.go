package roster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFileCSV(t *testing.T) {
	path := writeTempFile(t, "users.csv",
		"DisplayName,Title,Department,Company,TelephoneNumber,UPN,OUPath\n"+
			"Kovács János,docens,Informatika,NIK,123-4567,kovacs.janos@uni.hu,NIK/Informatika\n"+
			"Nagy Éva,,Matematika,,,,\n")

	records, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].UPN != "kovacs.janos@uni.hu" {
		t.Errorf("UPN = %q", records[0].UPN)
	}
	if records[1].DisplayName != "Nagy Éva" || records[1].Title != "" {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestParseFileTSV(t *testing.T) {
	path := writeTempFile(t, "users.tsv",
		"DisplayName\tDepartment\nKovács János\tInformatika\n")

	records, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if len(records) != 1 || records[0].Department != "Informatika" {
		t.Errorf("records = %+v", records)
	}
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"users.xlsx", "users.json", "users"} {
		path := writeTempFile(t, name, "irrelevant")
		_, err := ParseFile(path)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFile(%s) error = %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

func TestParseFileIgnoresUnknownColumns(t *testing.T) {
	path := writeTempFile(t, "users.csv",
		"DisplayName,Badge,Department\nKovács János,A-12,Informatika\n")

	records, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if records[0].DisplayName != "Kovács János" || records[0].Department != "Informatika" {
		t.Errorf("record = %+v", records[0])
	}
}
