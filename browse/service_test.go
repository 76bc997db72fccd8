package browse

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryListsDirsAndFilteredFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "trace.vcd"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService("vcd", "fst")
	contents, err := svc.Directory(dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	var sawDir, sawVCD, sawTxt bool
	for _, item := range contents.Items {
		switch {
		case item.IsDir && item.Name == "sub":
			sawDir = true
		case item.Name == "trace.vcd":
			sawVCD = true
		case item.Name == "notes.txt":
			sawTxt = true
		}
	}
	if !sawDir {
		t.Fatalf("expected to see the sub directory, got %+v", contents.Items)
	}
	if !sawVCD {
		t.Fatalf("expected to see trace.vcd, got %+v", contents.Items)
	}
	if sawTxt {
		t.Fatalf("notes.txt should have been filtered out by extension, got %+v", contents.Items)
	}
}

func TestDirectoriesContinuesPastAFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewService()
	batch := svc.Directories([]string{dir, "/nonexistent/path/for/sure"})
	if len(batch.Results) != 2 {
		t.Fatalf("expected 2 results even with one failure, got %d", len(batch.Results))
	}
}
