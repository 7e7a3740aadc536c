package media

import (
	"strings"
	"testing"
)

func TestIsSupportedExt(t *testing.T) {
	for _, ext := range []string{".mp3", ".WAV", ".flac", ".Ogg"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{"", ".aac", ".m4a", ".txt", "mp3"} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %q to be unsupported", ext)
		}
	}
}

func TestIsSupportedPath(t *testing.T) {
	if !IsSupportedPath("music/track.FLAC") {
		t.Fatal("expected flac path to be supported")
	}
	if IsSupportedPath("notes.md") {
		t.Fatal("expected markdown path to be unsupported")
	}
}

func TestSupportedExtsList(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range audioExts {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}
