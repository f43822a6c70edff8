package memory

import (
	"os"
	"path/filepath"
)

// ProjectPath resolves the project a directory belongs to: the nearest
// ancestor holding a .git entry, else the directory itself. The result is
// absolute so sessions from different working directories of one
// repository share a project.
func ProjectPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	for d := abs; ; {
		if _, err := os.Stat(filepath.Join(d, ".git")); err == nil {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return abs
}

// CurrentProjectPath is ProjectPath of the working directory.
func CurrentProjectPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return ProjectPath(cwd)
}
