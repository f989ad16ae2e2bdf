package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnvVar overrides the simpleserver home directory
	HomeEnvVar = "SIMPLESERVER_HOME"
	// DefaultHome is the home directory name under the user's home
	DefaultHome = ".simpleserver"
	// AccessLogFile is the default access-log database name
	AccessLogFile = "access.db"
	// ConfigFile is the default config file name looked up in the working directory
	ConfigFile = "simpleserver.toml"
	// IndexPath is served when the request path is empty or "/"
	IndexPath = "/index.html"
)

// ResolveRequestPath maps a raw request path onto a file under root.
// - Empty, whitespace-only and "/" paths become IndexPath
// - One leading separator is stripped
// - The remainder is joined with root
// No traversal check is made here; see IsWithinRoot.
func ResolveRequestPath(root string, rawPath string) string {
	requested := rawPath
	if strings.TrimSpace(requested) == "" || requested == "/" {
		requested = IndexPath
	}

	if strings.HasPrefix(requested, "/") {
		requested = requested[1:]
	} else if len(requested) > 0 && os.IsPathSeparator(requested[0]) {
		requested = requested[1:]
	}

	return filepath.Join(root, filepath.FromSlash(requested))
}

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist, resolve its directory instead
		if os.IsNotExist(err) {
			resolved = absolutePath
			if dir, dirErr := filepath.EvalSymlinks(filepath.Dir(absolutePath)); dirErr == nil {
				resolved = filepath.Join(dir, filepath.Base(absolutePath))
			}
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRoot checks if a path is inside root once symlinks are resolved
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}

	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// GetHome returns the simpleserver home directory.
// SIMPLESERVER_HOME wins over ~/.simpleserver.
func GetHome() (string, error) {
	if env := os.Getenv(HomeEnvVar); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultHome), nil
}

// GetAccessLogPath returns the default access-log database path
func GetAccessLogPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AccessLogFile), nil
}

// EnsureDir creates the parent directory of path if needed and returns it
func EnsureDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
