//go:build !linux && !darwin

package mmap

import (
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

func mmap(int, int) ([]byte, error) {
	return nil, errors.New(errors.ErrorTypeFile, "mmap is not supported on this platform")
}

func munmap([]byte) error { return nil }

func adviseSequential([]byte) error { return nil }
