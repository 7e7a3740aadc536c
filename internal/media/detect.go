package media

import (
	"path/filepath"
	"slices"
	"strings"
)

var audioExts = []string{".mp3", ".wav", ".flac", ".ogg"}

// IsSupportedExt returns true if the extension is a decodable audio format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// IsSupportedPath reports whether path has a supported extension.
func IsSupportedPath(path string) bool {
	return IsSupportedExt(filepath.Ext(path))
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
