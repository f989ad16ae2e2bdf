package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveRequestPath(t *testing.T) {
	root := filepath.FromSlash("/srv/www")

	tests := []struct {
		name    string
		rawPath string
		want    string
	}{
		{"empty path", "", "/srv/www/index.html"},
		{"slash", "/", "/srv/www/index.html"},
		{"whitespace only", "   ", "/srv/www/index.html"},
		{"plain file", "/style.css", "/srv/www/style.css"},
		{"nested file", "/assets/app.js", "/srv/www/assets/app.js"},
		{"no leading slash", "logo.png", "/srv/www/logo.png"},
		{"only one slash stripped", "//etc/hosts", "/srv/www/etc/hosts"},
		{"traversal is not rejected", "/../../etc/passwd", "/etc/passwd"},
		{"explicit index", "/index.html", "/srv/www/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRequestPath(root, tt.rawPath)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("ResolveRequestPath(%q) = %q, want %q", tt.rawPath, got, filepath.FromSlash(tt.want))
			}
		})
	}
}

func TestIsWithinRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "site", "index.html")
	if err := os.MkdirAll(filepath.Dir(inside), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inside, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", inside, true},
		{"missing file inside", filepath.Join(root, "missing.png"), true},
		{"root itself", root, true},
		{"dot-dot prefixed name", filepath.Join(root, "..hidden"), true},
		{"parent", filepath.Dir(root), false},
		{"sibling", filepath.Join(filepath.Dir(root), "other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinRoot(tt.path, root); got != tt.want {
				t.Errorf("IsWithinRoot(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsWithinRoot_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if IsWithinRoot(link, root) {
		t.Error("symlink pointing outside root should not be within root")
	}
}

func TestGetHome(t *testing.T) {
	t.Setenv(HomeEnvVar, "/custom/simpleserver/home")

	home, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}
	if home != "/custom/simpleserver/home" {
		t.Errorf("Expected env override, got %s", home)
	}

	t.Setenv(HomeEnvVar, "")
	home, err = GetHome()
	if err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}
	if !strings.HasSuffix(home, DefaultHome) {
		t.Errorf("Expected path to end with %s, got %s", DefaultHome, home)
	}
}

func TestGetAccessLogPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(HomeEnvVar, tempDir)

	path, err := GetAccessLogPath()
	if err != nil {
		t.Fatalf("GetAccessLogPath failed: %v", err)
	}
	if path != filepath.Join(tempDir, AccessLogFile) {
		t.Errorf("GetAccessLogPath() = %s", path)
	}
}

func TestEnsureDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "access.db")

	dir, err := EnsureDir(target)
	if err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected %s to be a directory", dir)
	}
}
