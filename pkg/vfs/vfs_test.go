package vfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDataInAndMv(t *testing.T) {
	dir := t.TempDir()
	f := New(dir)

	if f.DataIn("a") {
		t.Fatal("expected a to not exist yet")
	}
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !f.DataIn("a") {
		t.Fatal("expected a to exist")
	}

	if err := f.Mv("a", "b"); err != nil {
		t.Fatalf("mv: %v", err)
	}
	if f.DataIn("a") || !f.DataIn("b") {
		t.Fatal("expected a gone, b present after mv")
	}
}

func TestRmTolerantOfAbsence(t *testing.T) {
	dir := t.TempDir()
	f := New(dir)
	if err := f.Rm("nope"); err != nil {
		t.Fatalf("rm of absent file should not error, got %v", err)
	}
}

func TestNewestOldestIn(t *testing.T) {
	dir := t.TempDir()
	f := New(dir)
	older := filepath.Join(dir, "older")
	newer := filepath.Join(dir, "newer")
	os.WriteFile(older, []byte("x"), 0o644)
	os.WriteFile(newer, []byte("x"), 0o644)
	now := time.Now()
	os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(newer, now, now)

	newest, ok := f.NewestIn(dir)
	if !ok || newest.Path == "" {
		t.Fatal("expected a newest file")
	}
	oldest, ok := f.OldestIn(dir)
	if !ok {
		t.Fatal("expected an oldest file")
	}
	if oldest.ModTimeMs >= newest.ModTimeMs {
		t.Fatalf("expected oldest < newest, got %d >= %d", oldest.ModTimeMs, newest.ModTimeMs)
	}
}

func TestMvAcrossBackendsFails(t *testing.T) {
	dir := t.TempDir()
	f := New(dir)
	f.Register(&fakeBackend{scheme: "mem"})
	if err := f.Mv("file:a", "mem:b"); err == nil {
		t.Fatal("expected error moving across backends")
	}
}

type fakeBackend struct{ scheme string }

func (b *fakeBackend) Scheme() string                      { return b.scheme }
func (b *fakeBackend) Exists(string) bool                   { return false }
func (b *fakeBackend) Newest(string) (FileInfo, bool)       { return FileInfo{}, false }
func (b *fakeBackend) Oldest(string) (FileInfo, bool)       { return FileInfo{}, false }
func (b *fakeBackend) Rm(string) error                      { return nil }
func (b *fakeBackend) Mv(string, string) error              { return nil }
