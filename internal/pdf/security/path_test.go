package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPathValidator(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{name: "valid directory", dir: tempDir, wantError: false},
		{name: "empty directory", dir: "", wantError: true},
		{name: "non-existent directory", dir: filepath.Join(tempDir, "missing"), wantError: true},
		{name: "file instead of directory", dir: testFile, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.dir)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !filepath.IsAbs(validator.Root()) {
				t.Errorf("Root() = %q, want an absolute path", validator.Root())
			}
		})
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "filings", "acme.pdf")
	if err := os.MkdirAll(filepath.Dir(inside), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(inside, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	outsideDir := t.TempDir()
	outside := filepath.Join(outsideDir, "secret.pdf")
	if err := os.WriteFile(outside, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	v, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("NewPathValidator: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "absolute inside", path: inside, want: inside},
		{name: "relative inside", path: "filings/acme.pdf", want: inside},
		{name: "not yet existing inside", path: "new.pdf", want: filepath.Join(root, "new.pdf")},
		{name: "dot-dot escape", path: "../" + filepath.Base(outsideDir) + "/secret.pdf", wantErr: true},
		{name: "absolute outside", path: outside, wantErr: true},
		{name: "symlink escape", path: link, wantErr: true},
		{name: "empty", path: "", wantErr: true},
		{name: "null bytes only", path: "\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Resolve(%q) = %q, want error", tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
