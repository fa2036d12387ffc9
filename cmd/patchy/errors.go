package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/patchy-sync/patchy/patcherrors"
)

// exitCodeFor maps an error's patcherrors.Kind to an exit code, per spec
// §6 ("Exit code 0 on success; non-zero on any error in §7"). Each kind
// gets a distinct non-zero code so scripts can distinguish failure modes
// without parsing stderr.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	kind, ok := patcherrors.KindOf(err)
	if !ok {
		return 1
	}

	switch kind {
	case patcherrors.BadOption:
		return 2
	case patcherrors.IoError:
		return 3
	case patcherrors.BaseMismatch:
		return 4
	case patcherrors.OutputMismatch:
		return 5
	case patcherrors.PatchMalformed:
		return 6
	case patcherrors.DiffVerificationFailed:
		return 7
	default:
		return 1
	}
}
