package util

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TempUploadName returns a unique file name for an upload. Only the
// client's extension survives, so the name cannot escape the upload dir.
func TempUploadName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return time.Now().UTC().Format("20060102T150405") + "-" + uuid.NewString() + ext
}

// Preview shortens s to n runes for log lines, marking the cut with "…".
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if n == 0 {
			cut = i
			break
		}
		n--
	}
	return s[:cut] + "…"
}
