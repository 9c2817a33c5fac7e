package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	// cobra reads os.Args when given nil
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitCodeSuccess
	}

	var cliErr *exitError
	if errors.As(err, &cliErr) {
		fmt.Fprintf(stderr, FmtErrorWithCause, cliErr.msg, cliErr.err)
		return cliErr.code
	}

	// Flag and argument errors reported by cobra
	fmt.Fprintln(stderr, err)
	return ExitCodeUsageError
}

// exitError carries the exit code for a failed command
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(code int, msg string, err error) error {
	return &exitError{code: code, msg: msg, err: err}
}
