package main

import (
	"errors"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/notify"
	"github.com/hamed0406/pingwatch/internal/scheduler"
)

// Process exit codes. Unreachable targets are reported by email, not by the
// exit code: a run that checked everything and delivered its alert exits 0.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
	exitNotify  = 3
	exitAborted = 4
)

func exitCode(err error) int {
	var nerr *notify.Error
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrConfiguration):
		return exitConfig
	case errors.As(err, &nerr):
		return exitNotify
	case errors.Is(err, scheduler.ErrRunAborted):
		return exitAborted
	default:
		return exitFailure
	}
}
