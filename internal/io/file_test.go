package ioutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	past := time.Now().Add(-age)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFilePreservesModTime(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "src.mov", []byte("payload"))
	backdate(t, src, 2*time.Hour)

	dst := filepath.Join(dir, "dst.mov")
	if err := CopyFile(context.Background(), src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}

	srcInfo, _ := os.Stat(src)
	dstInfo, _ := os.Stat(dst)
	if !srcInfo.ModTime().Equal(dstInfo.ModTime()) {
		t.Errorf("mod time not preserved: src %v, dst %v", srcInfo.ModTime(), dstInfo.ModTime())
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "a.jpg", []byte("x"))
	dst := filepath.Join(dir, "sub", "b.jpg")

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(context.Background(), src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone after move")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestIsReady(t *testing.T) {
	dir := t.TempDir()

	ready := writeTempFile(t, dir, "ready.mov", []byte("data"))
	backdate(t, ready, time.Minute)

	fresh := writeTempFile(t, dir, "fresh.mov", []byte("data"))
	empty := writeTempFile(t, dir, "empty.mov", nil)
	backdate(t, empty, time.Minute)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"aged file", ready, true},
		{"too fresh", fresh, false},
		{"zero bytes", empty, false},
		{"missing", filepath.Join(dir, "nope.mov"), false},
		{"directory", dir, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReady(tt.path, 30*time.Second); got != tt.want {
				t.Errorf("IsReady(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsOldEnough(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "f.mov", []byte("d"))
	backdate(t, path, 10*time.Minute)

	if !IsOldEnough(path, time.Minute) {
		t.Error("file aged 10m should satisfy 1m threshold")
	}
	if IsOldEnough(path, time.Hour) {
		t.Error("file aged 10m should not satisfy 1h threshold")
	}
	if IsOldEnough(filepath.Join(dir, "missing"), 0) {
		t.Error("missing file is never old enough")
	}
}

func TestCanAccessUnlockedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "free.mov", []byte("d"))

	if !CanAccess(context.Background(), path, time.Second) {
		t.Error("CanAccess should succeed on an unlocked file")
	}
}

func TestCanAccessMissingFile(t *testing.T) {
	if CanAccess(context.Background(), "/no/such/file", time.Second) {
		t.Error("CanAccess should fail for a missing file")
	}
}
