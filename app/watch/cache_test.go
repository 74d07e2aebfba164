package watch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeWatchFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write watch file: %v", err)
	}
}

func TestCacheRun(t *testing.T) {
	dir := t.TempDir()
	writeWatchFile(t, dir, "other-acquisitions.yml", "codes: [\"J\"]\nenabled: true\n")
	writeWatchFile(t, dir, "gifts.yml", "codes: [\"G\"]\nenabled: true\ncomment: bona fide gifts\n")
	writeWatchFile(t, dir, "disabled.yml", "codes: [\"P\"]\nenabled: false\n")

	cache := NewCache(dir, []string{"J"})
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cache.GetConfigCount() != 3 {
		t.Errorf("Expected 3 configs, got %d", cache.GetConfigCount())
	}

	codes := cache.ActiveCodes()
	if !reflect.DeepEqual(codes, []string{"G", "J"}) {
		t.Errorf("Expected merged codes [G J], got %v", codes)
	}
}

func TestCacheActiveCodes_FallbackToDefault(t *testing.T) {
	cache := NewCache(t.TempDir(), []string{"J"})
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	codes := cache.ActiveCodes()
	if !reflect.DeepEqual(codes, []string{"J"}) {
		t.Errorf("Expected default codes [J], got %v", codes)
	}
}

func TestCacheDefaultCodes_Trimmed(t *testing.T) {
	// TARGET_CODES="J, G" splits into codes with stray whitespace.
	cache := NewCache(t.TempDir(), []string{"J", " G "})
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	codes := cache.ActiveCodes()
	if !reflect.DeepEqual(codes, []string{"J", "G"}) {
		t.Errorf("Expected trimmed default codes [J G], got %v", codes)
	}
}

func TestCacheRun_InvalidDefaultCode(t *testing.T) {
	cache := NewCache(t.TempDir(), []string{"jg"})
	if err := cache.Run(); err == nil {
		t.Error("Expected error for invalid default transaction code")
	}
}

func TestCacheRun_NoDefaultCodes(t *testing.T) {
	cache := NewCache(t.TempDir(), []string{" ", ""})
	if err := cache.Run(); err == nil {
		t.Error("Expected error when every default code is blank")
	}
}

func TestCacheRun_MissingDirIsNotAnError(t *testing.T) {
	cache := NewCache("/nonexistent/watch/dir", []string{"J"})
	if err := cache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
}

func TestCacheRun_InvalidCode(t *testing.T) {
	dir := t.TempDir()
	writeWatchFile(t, dir, "bad.yml", "codes: [\"JX\"]\nenabled: true\n")

	cache := NewCache(dir, []string{"J"})
	if err := cache.Run(); err == nil {
		t.Error("Expected error for multi-character transaction code")
	}
}

func TestCacheRun_EmptyCodes(t *testing.T) {
	dir := t.TempDir()
	writeWatchFile(t, dir, "empty.yml", "codes: []\nenabled: true\n")

	cache := NewCache(dir, []string{"J"})
	if err := cache.Run(); err == nil {
		t.Error("Expected error for empty code list")
	}
}
