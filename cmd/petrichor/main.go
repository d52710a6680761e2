package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/petrichor-player/petrichor/internal"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		color.Error.Println(err.Error())
		return internal.ExitCode(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "petrichor",
		Short:         "Package Hopscotch projects into offline-playable bundles",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "yaml file overriding endpoints and limits")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every step")
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &internal.ArgumentError{Msg: err.Error() + "\n\n" + c.UsageString()}
	})

	root.AddCommand(
		newGenerateCmd(opts),
		newVersionsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func (o *rootOptions) config() (*internal.Config, error) {
	return internal.LoadConfig(o.configPath)
}

func (o *rootOptions) logger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !o.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// argsBetween reports a wrong argument count as an ArgumentError so it maps
// to the usage exit code.
func argsBetween(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return &internal.ArgumentError{Msg: "Bad arguments.\n\n" + cmd.UsageString()}
		}
		return nil
	}
}
