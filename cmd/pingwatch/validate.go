package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hamed0406/pingwatch/internal/config"
)

func newValidateCmd(o *options) *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and check the configuration without probing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "config ok: %d targets, alert to %s", len(cfg.Targets), cfg.Alert.To)
			if len(cfg.Alert.Cc) > 0 {
				_, _ = fmt.Fprintf(out, " cc %s", strings.Join(cfg.Alert.Cc, ", "))
			}
			_, _ = fmt.Fprintln(out)

			if !resolve {
				return nil
			}
			cfg.Log.Dir = ""
			cfg.Log.Console = false
			a, err := build(cfg, nil)
			if err != nil {
				return err
			}
			return resolveAll(cmd.Context(), a, cfg.Probe.ResolveTimeout, out)
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "also resolve every host name target")
	return cmd
}

func resolveAll(ctx context.Context, a *app, timeout time.Duration, out io.Writer) error {
	var errs error
	for _, t := range a.targets.All() {
		if net.ParseIP(t.Address) != nil {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
		ip, err := a.resolver.Resolve(rctx, t.Address)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target %s: %w", t, err))
			continue
		}
		_, _ = fmt.Fprintf(out, "%s -> %s\n", t, ip)
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, errs)
	}
	return nil
}
