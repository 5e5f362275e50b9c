package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func printUsage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <command> [args...]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

// parseDup2 parses an "old=new" descriptor pair
func parseDup2(s string) (oldfd, newfd int, err error) {
	oldStr, newStr, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("dup2 spec %q is not old=new", s)
	}
	if oldfd, err = strconv.Atoi(oldStr); err != nil {
		return 0, 0, fmt.Errorf("dup2 spec %q: %w", s, err)
	}
	if newfd, err = strconv.Atoi(newStr); err != nil {
		return 0, 0, fmt.Errorf("dup2 spec %q: %w", s, err)
	}
	return oldfd, newfd, nil
}
