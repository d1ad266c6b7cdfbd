package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/notify"
	"github.com/hamed0406/pingwatch/internal/scheduler"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, exitOK},
		{"config", fmt.Errorf("%w: alert.to is required", config.ErrConfiguration), exitConfig},
		{"notify", &notify.Error{Transport: "smtp", Err: notify.ErrAuth}, exitNotify},
		{"aborted", fmt.Errorf("%w: %w", scheduler.ErrRunAborted, context.Canceled), exitAborted},
		{"other", errors.New("listen tcp: address in use"), exitFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, exitCode(c.err))
		})
	}
}
