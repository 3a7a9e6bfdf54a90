package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTotalBytesScanned_SumsFileSizes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	if err := os.WriteFile(a, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := totalBytesScanned([]string{a, b})
	want := int64(len("hello") + len("hello world"))
	if got != want {
		t.Fatalf("totalBytesScanned = %d, want %d", got, want)
	}
}

func TestTotalBytesScanned_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.log")

	got := totalBytesScanned([]string{missing})
	if got != 0 {
		t.Fatalf("totalBytesScanned = %d, want 0", got)
	}
}
