package storage

import (
	"time"

	"golang.org/x/sys/unix"
)

func createdAt(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return time.Time{}, err
	}
	return time.Unix(st.Btim.Unix()), nil
}
