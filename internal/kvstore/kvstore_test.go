package kvstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_GetMissingKeyReportsAbsence(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, ok, err := store.Get("financeos.policy.v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to report absence")
	}
}

func TestFileStore_SetThenGetRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.Set("financeos.policy.v1", []byte(`{"killSwitch":true}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, ok, err := store.Get("financeos.policy.v1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}
	if string(data) != `{"killSwitch":true}` {
		t.Fatalf("unexpected record data: %s", data)
	}
}

func TestFileStore_SetOverwritesWholesale(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.Set("k", []byte("first")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set("k", []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, _, err := store.Get("k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected %q, got %q", "second", data)
	}
}

func TestFileStore_DeleteAbsentKeyIsNoError(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.Delete("never-written"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileStore_KeysAreSanitizedToSingleFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Set("../escape", []byte("x")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("read state dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 record file, got %d", len(entries))
	}
}

func TestMemStore_RoundTripAndDelete(t *testing.T) {
	store := NewMemStore()

	if err := store.Set("k", []byte("v")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	data, ok, err := store.Get("k")
	if err != nil || !ok {
		t.Fatalf("expected record, got ok=%v err=%v", ok, err)
	}
	if string(data) != "v" {
		t.Fatalf("expected %q, got %q", "v", data)
	}

	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("expected record to be gone")
	}
}
