//go:build !windows
// +build !windows

// Package rlimit contains a function to raise rlimit.
package rlimit

import (
	"syscall"
)

const wantedFiles = 999999

// Raise raises the number of file descriptors that can be opened,
// up to the hard limit.
func Raise() error {
	var rlim syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlim)
	if err != nil {
		return err
	}

	if uint64(rlim.Cur) >= wantedFiles {
		return nil
	}

	if uint64(rlim.Max) < wantedFiles {
		rlim.Cur = rlim.Max
	} else {
		rlim.Cur = wantedFiles
	}

	return syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rlim)
}
