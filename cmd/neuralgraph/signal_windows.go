//go:build windows

package main

import "os"

// interruptSignals are the signals that cancel an in-flight fetch.
// SIGTERM does not exist on Windows.
var interruptSignals = []os.Signal{os.Interrupt}
