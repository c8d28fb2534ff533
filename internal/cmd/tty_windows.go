//go:build windows

package cmd

import "fmt"

func checkTTY() error {
	return fmt.Errorf("interactive picking is not supported on Windows")
}

func checkTERM() error {
	return nil
}

func checkTermWidth() error {
	return nil
}

func acquireLock(path string) (int, error) {
	return -1, nil
}

func releaseLock(fd int) {}
