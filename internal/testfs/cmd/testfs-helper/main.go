//go:build linux

// testfs-helper is a binary helper for E2E tests that runs inside containers.
//
//	testfs-helper sow   - Create a source tree from JSON spec (stdin)
//
// This is a thin wrapper around the testfs package functions.
package main

import (
	"fmt"
	"os"

	"github.com/ivoronin/repolizer/internal/testfs"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: testfs-helper sow")
	}

	switch os.Args[1] {
	case "sow":
		cmdSow()
	default:
		fatalf("unknown command: %s (use 'sow')", os.Args[1])
	}
}

// cmdSow reads a FileTree JSON from stdin and creates the source tree.
func cmdSow() {
	// Root is "/" since we're in a container with actual tmpfs mounts
	if err := testfs.SowFromReader(os.Stdin, "/"); err != nil {
		fatalf("sow: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "testfs-helper: "+format+"\n", args...)
	os.Exit(1)
}
