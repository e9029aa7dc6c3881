// Package main provides the bibliomatch command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Process exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitConfig   = 2
	exitInput    = 3
	exitNotFound = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrConfiguration):
		return exitConfig
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidInput):
		return exitInput
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoResults),
		errors.Is(err, domain.ErrNoRelevantResults),
		errors.Is(err, domain.ErrNoCitation):
		return exitNotFound
	default:
		return exitError
	}
}
