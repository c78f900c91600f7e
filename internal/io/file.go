// Package ioutils provides file system utilities for shuttermill.
//
// This package contains functions for:
//   - File copying and moving
//   - Readiness checks for files still being written by a producer
//   - A timeout-bounded advisory lock probe
//   - Directory creation
//
// All functions that accept a context.Context respect cancellation,
// though file operations themselves may not be interruptible.
package ioutils

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// lockRetryInterval is the pause between advisory lock attempts.
const lockRetryInterval = 100 * time.Millisecond

// CopyFile copies a file from source to destination, preserving the
// source's modification time so age-based readiness checks keep their
// meaning on the copy.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does.
//
// Example:
//
//	err := ioutils.CopyFile(ctx, "/shared/IMG.mov", "/user1/incoming/IMG.mov")
func CopyFile(ctx context.Context, src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(src); err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}

// MoveFile renames src to dst, falling back to copy-and-delete when
// the two paths live on different filesystems.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return err
	}

	if err := CopyFile(ctx, src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, unix.EXDEV)
	}
	return errors.Is(err, unix.EXDEV)
}

// WriteFile writes data to a file with mode 0644, truncating any
// existing content.
func WriteFile(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// EnsureDir creates a directory and all parent directories if they
// don't exist. Directories are created with mode 0755.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileAge returns how long ago the file was last modified.
func FileAge(path string) (time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}

// IsOldEnough reports whether the file's last modification lies at
// least minAge in the past. A file that cannot be stat'ed is not old
// enough.
func IsOldEnough(path string, minAge time.Duration) bool {
	age, err := FileAge(path)
	if err != nil {
		return false
	}
	return age >= minAge
}

// IsReady reports whether a file looks fully written by its producer:
// it exists, is a regular file, has content, and has not been modified
// for at least minAge.
func IsReady(path string, minAge time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return false
	}
	return time.Since(info.ModTime()) >= minAge
}

// CanAccess probes whether another process is still writing the file,
// using a non-blocking advisory lock retried until timeout. It is a
// detection aid, not a mutual-exclusion primitive: the lock is
// released before returning, and nothing stops another process from
// opening the file afterwards.
//
// Returns true once the lock is acquired within the timeout, false on
// timeout, open failure or context cancellation.
func CanAccess(ctx context.Context, path string, timeout time.Duration) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			return true
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			return false
		}
		if time.Now().After(deadline) {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(lockRetryInterval):
		}
	}
}
