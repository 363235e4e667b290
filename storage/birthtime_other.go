//go:build !linux && !darwin

package storage

import (
	"os"
	"time"
)

// createdAt falls back to the modification time where no portable birth
// time is available.
func createdAt(path string) (time.Time, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
