// Command tutorctl is the operator CLI surface over the Service API
// (spec §6): ingest, vacuum, stats. Exit codes map from the errs
// taxonomy: 0 success, 1 validation error, 2 transient failure
// (retry-safe), 3 hard failure.
package main

import (
	"fmt"
	"os"

	"github.com/example/bilingualtutor/internal/errs"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch errs.KindOf(err) {
	case errs.InvalidInput:
		return 1
	case errs.Transient, errs.RateLimited:
		return 2
	default:
		return 3
	}
}
