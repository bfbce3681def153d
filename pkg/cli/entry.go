// Package cli implements the vellum command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/vellum/internal/config"
)

// ErrCheckFailed is returned once the diagnostics of a failed check have
// been printed.
var ErrCheckFailed = errors.New("check failed")

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool

	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &Options{Stdout: stdout, Stderr: stderr}

	root := &cobra.Command{
		Use:   "vellum",
		Short: "Type checker for vellum modules",
		Long: `vellum checks modules written in the vellum smart-contract language.
Modules are read from their interchange form (.vl.yaml) as produced by the parser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to vellum.yaml (searched upwards from the working directory by default)")
	root.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(checkCmd(opts))
	root.AddCommand(interfaceCmd(opts))
	return root
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrCheckFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}

func (o *Options) loadConfig() (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, fmt.Errorf("no %s found in the working directory or its parents", config.ProjectFileNames[0])
		}
		path = found
	}
	return config.LoadConfig(path)
}

// newLogger builds a development logger for --debug, otherwise a production
// logger at the configured level. Logs go to stderr.
func (o *Options) newLogger(cfg *config.Config) (*zap.Logger, error) {
	if o.Debug {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
