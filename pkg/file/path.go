package file

import (
	"path/filepath"
	"strings"
	"time"
)

// EnsureExt appends ext to path when the base name has no extension.
// An existing extension is left untouched.
func EnsureExt(path, ext string) string {
	if path == "" || ext == "" {
		return path
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	filename := filepath.Base(path)
	if lastDot := strings.LastIndex(filename, "."); lastDot > 0 {
		return path
	}
	return path + ext
}

// TimestampedName builds names like "sales_report_20250102_150405.md".
func TimestampedName(prefix, ext string, t time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return prefix + "_" + t.Format("20060102_150405") + ext
}
