package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

var version = "dev"

// Exit codes.
const (
	exitOK         = 0
	exitGeneral    = 1
	exitUsage      = 2
	exitTransport  = 3
	exitPagination = 4
	exitBoundary   = 5
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return mapErrorToExitCode(err)
	}
	return exitOK
}

// usageError marks an invalid command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// mapErrorToExitCode maps errors to process exit codes.
func mapErrorToExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, model.ErrCredentialMissing):
		return exitUsage
	case errors.Is(err, model.ErrTransport):
		return exitTransport
	case errors.Is(err, model.ErrPaginationExhausted), errors.Is(err, model.ErrMalformedLink):
		return exitPagination
	case errors.Is(err, model.ErrMissingBoundary):
		return exitBoundary
	default:
		return exitGeneral
	}
}
