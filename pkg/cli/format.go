// Package cli provides shared formatting helpers for the ifworkerctl and
// ifworkerd command-line tools: ANSI color wrapping, a worker-status
// renderer, and the terminal-width-aware Table.
package cli

import (
	"fmt"
	"strings"
)

// ANSI color helpers

func Green(s string) string  { return "\033[32m" + s + "\033[0m" }
func Yellow(s string) string { return "\033[33m" + s + "\033[0m" }
func Red(s string) string    { return "\033[31m" + s + "\033[0m" }
func Bold(s string) string   { return "\033[1m" + s + "\033[0m" }
func Dim(s string) string    { return "\033[2m" + s + "\033[0m" }

// WorkerStatus renders a worker's terminal-column STATUS cell: green
// "done", red "failed (<kind>)", or yellow "pending" for anything still
// in flight. done takes precedence if both done and failed are somehow
// set, since Worker.Done and Worker.Failed are meant to be exclusive.
func WorkerStatus(done, failed bool, failureKind string) string {
	switch {
	case done:
		return Green("done")
	case failed:
		return Red(fmt.Sprintf("failed (%s)", failureKind))
	default:
		return Yellow("pending")
	}
}

// DotPad pads name with dots to the given width.
// Example: DotPad("boot-ssh", 30) → "boot-ssh ......................"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
