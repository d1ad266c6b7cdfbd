package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev" // Set at build time using -ldflags

const (
	envConfigFile     = "PINGWATCH_CONFIG"
	defaultConfigFile = "pingwatch.yaml"

	flagConfig   = "config"
	flagLogLevel = "log-level"
)

type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "pingwatch <command>",
		Short:         "Ping a list of hosts and email one alert for those that stay down.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	initFlags(root.PersistentFlags(), o)

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newDaemonCmd(o))
	root.AddCommand(newValidateCmd(o))
	return root
}

func initFlags(fs *pflag.FlagSet, o *options) {
	def := defaultConfigFile
	if env := strings.TrimSpace(os.Getenv(envConfigFile)); env != "" {
		def = env
	}
	fs.StringVarP(&o.configPath, flagConfig, "c", def, "path to the YAML config file")
	fs.StringVar(&o.logLevel, flagLogLevel, "", "override log.level (debug, info, warn, error)")
}
