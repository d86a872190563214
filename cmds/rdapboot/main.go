// Command rdapboot finds the RDAP service responsible for domain names, IP
// addresses, AS numbers and tagged entity handles.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/safing/rdapboot/service/bootstrap"
)

// Exit codes.
const (
	exitOK             = 0
	exitFailure        = 1
	exitNoServiceFound = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	cmd, cleanup := newRootCmd(out, errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if closeErr := cleanup(); closeErr != nil && err == nil {
		err = closeErr
	}

	switch {
	case err == nil:
		return exitOK
	case bootstrap.IsNoServiceFound(err):
		fmt.Fprintln(errOut, err)
		return exitNoServiceFound
	default:
		fmt.Fprintln(errOut, err)
		return exitFailure
	}
}
