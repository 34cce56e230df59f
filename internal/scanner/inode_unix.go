//go:build unix

package scanner

import (
	"os"
	"syscall"
)

// inode extracts the inode number used to key cache entries.
func inode(info os.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ino
	}
	return 0
}
