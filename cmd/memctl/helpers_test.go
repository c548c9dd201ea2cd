package main

import (
	"bytes"
	"os"
	"testing"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// resetFlags restores the global flags between test cases.
func resetFlags() {
	verbose, quiet, jsonOut, logLevel = false, false, false, ""
	guardSize, guardWrite, guardOffset, guardProtect = 10, 0, 0, false
	poolCapacity, poolCount, poolRelease = 16, 8, 0
	poolCheckDouble, poolDoubleRelease = false, false
}
