package textutil

import (
	"path/filepath"
	"strings"
)

// unsafeFileChars maps characters that break downloads on common
// filesystems. Separators become dashes; the rest are dropped.
var unsafeFileChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-",
	"?", "", "\"", "", "<", "", ">", "", "|", "",
)

const maxUploadExtLen = 5

// SRTFileName builds the download name for a job's captions from its
// title. Titles that sanitize to nothing fall back to "captions.srt".
func SRTFileName(title string) string {
	name := strings.TrimSpace(unsafeFileChars.Replace(strings.TrimSpace(title)))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "captions.srt"
	}
	return name + ".srt"
}

// UploadExtension returns the lowercased extension of an uploaded file
// name when it is a short ASCII alphanumeric suffix, or "" otherwise.
func UploadExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	suffix := strings.TrimPrefix(ext, ".")
	if suffix == "" || len(suffix) > maxUploadExtLen {
		return ""
	}
	for _, r := range suffix {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
