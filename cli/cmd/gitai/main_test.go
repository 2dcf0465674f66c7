package main

import (
	"testing"
)

func TestRunCLI_helpExitsZero(t *testing.T) {
	if got := runCLI(nil); got != 0 {
		t.Errorf("runCLI(nil) = %d, want 0", got)
	}
	if got := runCLI([]string{"--help"}); got != 0 {
		t.Errorf("runCLI(--help) = %d, want 0", got)
	}
}

func TestRunCLI_unknownCommand(t *testing.T) {
	if got := runCLI([]string{"explain"}); got == 0 {
		t.Error("unknown command should exit non-zero")
	}
}

func TestErrExit(t *testing.T) {
	t.Parallel()
	if errExit(2).Error() != "exit 2" {
		t.Errorf("errExit(2).Error() = %q", errExit(2).Error())
	}
}
