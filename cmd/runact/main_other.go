//go:build !linux

// Command runact spawns a program with a prepared descriptor and limit
// setup. The spawn primitive is linux only, so elsewhere runact can only
// report that.
package main

import (
	"fmt"
	"os"
	"runtime"
)

func main() {
	fmt.Fprintf(os.Stderr, "runact: unsupported on platform %s\n", runtime.GOOS)
	// 125 reports a failure of runact itself, not of the program
	os.Exit(125)
}
