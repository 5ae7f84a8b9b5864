// Package dirstat provides best-effort file counting and size accounting
// over the dataset output tree.
package dirstat

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stats returns the number of regular files under root and their combined
// size in bytes. A missing root yields zeros. Unreadable entries are
// skipped rather than failing the walk: usage accounting is advisory.
func Stats(root string) (files int, size int64) {
	if _, err := os.Stat(root); err != nil {
		return 0, 0
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}

// Size returns the combined size in bytes of regular files under root.
func Size(root string) int64 {
	_, size := Stats(root)
	return size
}

// CountByExt counts regular files under root whose name ends with one of
// the given extensions (compared case-insensitively, including the dot).
func CountByExt(root string, exts ...string) int {
	count := 0
	if _, err := os.Stat(root); err != nil {
		return 0
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, want := range exts {
			if ext == want {
				count++
				break
			}
		}
		return nil
	})
	return count
}

// FormatSize renders a byte count in human-readable units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	for _, suffix := range []string{"KB", "MB", "GB", "TB"} {
		value /= unit
		if value < unit {
			return fmt.Sprintf("%.2f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%.2f PB", value/unit)
}
