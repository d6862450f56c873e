//go:build !windows

package main

import (
	"os"
	"syscall"
)

// interruptSignals are the signals that cancel an in-flight fetch.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
