package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeZip(t *testing.T, names ...string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "slides.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zf.Close()

	w := zip.NewWriter(zf)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			hdr := &zip.FileHeader{Name: name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", name, err)
			}
			continue
		}
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte("content of " + name)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func visit(t *testing.T, zipPath, pathIn string) ([]string, error) {
	t.Helper()
	var visited []string
	err := Walk(zipPath, pathIn, func(archive string, file *zip.File) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, file.Name)
		return nil
	})
	return visited, err
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		"talks/", "talks/part-10.rst", "talks/part-2.rst", "talks/part-1.rst",
		"talksextra/a.rst", "notes/todo.txt", "index.rst",
	)

	tests := []struct {
		name   string
		pathIn string
		want   string
	}{
		{"everything", "", "index.rst notes/todo.txt talks/part-1.rst talks/part-2.rst talks/part-10.rst talksextra/a.rst"},
		{"directory", "talks", "talks/part-1.rst talks/part-2.rst talks/part-10.rst"},
		{"directory_slash", "talks/", "talks/part-1.rst talks/part-2.rst talks/part-10.rst"},
		{"single_file", "notes/todo.txt", "notes/todo.txt"},
		{"no_match", "missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visited, err := visit(t, zipPath, tt.pathIn)
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if got := strings.Join(visited, " "); got != tt.want {
				t.Errorf("visited = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t, "a.rst", "b.rst", "c.rst")
	stopErr := errors.New("stop walking")
	visited := 0
	err := Walk(zipPath, "", func(string, *zip.File) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if err != stopErr {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2", visited)
	}
}

func TestWalk_FileContent(t *testing.T) {
	zipPath := makeZip(t, "deck.rst")
	err := Walk(zipPath, "", func(_ string, file *zip.File) error {
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if string(data) != "content of deck.rst" {
			t.Errorf("content = %q", data)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	if _, err := visit(t, "/nonexistent/file.zip", ""); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.zip")
	if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := visit(t, invalid, ""); err == nil {
		t.Error("Expected error for invalid zip file")
	}
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := makeZip(t, "ok.rst", "../evil.rst")
	if _, err := visit(t, zipPath, ""); err == nil {
		t.Error("Expected error for path traversal entry")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a/b.rst", true},
		{"a..b/c.rst", true},
		{"/etc/passwd", false},
		{`\windows`, false},
		{"a/../../b", false},
		{"..", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSafePath(tt.name); got != tt.want {
				t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	if !Matches("a/b.rst", "") || !Matches("a/b.rst", "a") || !Matches("a/b.rst", "a/b.rst") {
		t.Error("Matches() rejected valid entry")
	}
	if Matches("ab/c.rst", "a") || Matches("a/b.rst", "a/b") {
		t.Error("Matches() accepted entry outside of path")
	}
}
