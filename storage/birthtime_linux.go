package storage

import (
	"time"

	"golang.org/x/sys/unix"
)

// createdAt prefers the birth time statx reports and falls back to the
// inode change time on filesystems that do not record one.
func createdAt(path string) (time.Time, error) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME|unix.STATX_CTIME, &stx); err != nil {
		return time.Time{}, err
	}

	ts := stx.Ctime
	if stx.Mask&unix.STATX_BTIME != 0 {
		ts = stx.Btime
	}
	return time.Unix(ts.Sec, int64(ts.Nsec)), nil
}
