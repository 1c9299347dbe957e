//go:build windows

package cmd

import (
	"errors"
	"os"
)

// openTTY is unsupported on Windows; pick falls back to filter output.
func openTTY() (*os.File, error) {
	return nil, errors.New("interactive picker is not supported on windows")
}

func ttyWidth(*os.File) int {
	return 0
}
