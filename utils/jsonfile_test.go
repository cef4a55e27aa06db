package utils_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"anivault/utils"
)

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	if err := utils.WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["a"] != 1 {
		t.Fatalf("unexpected content: %v", decoded)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err = %v", err)
	}
}

func TestWriteJSONAtomicReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte(`{"old":true}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := utils.WriteJSONAtomic(path, map[string]bool{"new": true}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded map[string]bool
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded["new"] || len(decoded) != 1 {
		t.Fatalf("expected old content replaced, got %v", decoded)
	}
}

func TestWriteJSONAtomicLeavesTargetOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte(`{"kept":true}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	// Channels cannot be marshalled, so encoding fails after the temp file
	// is created. The existing store must survive untouched.
	if err := utils.WriteJSONAtomic(path, make(chan int)); err == nil {
		t.Fatalf("expected encode error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"kept":true}` {
		t.Fatalf("expected original content preserved, got %s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed after failure, stat err = %v", err)
	}
}
