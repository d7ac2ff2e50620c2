package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload for the verified copy"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(data) != "payload for the verified copy" {
		t.Fatalf("destination content mismatch: %q", data)
	}
}

func TestMoveFileSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "invoice.pdf")
	dst := filepath.Join(dir, "moved", "invoice.pdf")
	if err := os.WriteFile(src, []byte("pdf bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestContentKeyIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("same bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := ContentKey(path)
	if err != nil {
		t.Fatalf("ContentKey: %v", err)
	}
	second, err := ContentKey(path)
	if err != nil {
		t.Fatalf("ContentKey: %v", err)
	}
	if first != second {
		t.Fatalf("digest changed between reads: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestUniquePathAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	free := UniquePath(dir, "report.pdf")
	if free == existing {
		t.Fatal("UniquePath returned an occupied path")
	}
	if filepath.Ext(free) != ".pdf" {
		t.Fatalf("extension should be preserved: %s", free)
	}
	if !strings.HasPrefix(filepath.Base(free), "report.") {
		t.Fatalf("stem should be preserved: %s", free)
	}
}

func TestUniquePathUsesBaseWhenFree(t *testing.T) {
	dir := t.TempDir()
	got := UniquePath(dir, "fresh.txt")
	if got != filepath.Join(dir, "fresh.txt") {
		t.Fatalf("expected plain join, got %s", got)
	}
}
