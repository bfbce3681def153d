package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/vellum/internal/cache"
	"github.com/funvibe/vellum/internal/modules"
)

func checkCmd(opts *Options) *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "check [file|directory...]",
		Short: "Type-check the project modules",
		Long: `Checks every module listed in vellum.yaml, or the given files and
directories instead. Warnings and the first error are printed as
file:line:col: severity[code]: message.`,
		Example: `  vellum check
  vellum check -c contracts/vellum.yaml
  vellum check build/modules/ extra.vl.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args, noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Neither read nor write the interface cache")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *Options, args []string, noCache bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := opts.newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	files := cfg.ModulePaths()
	if len(args) > 0 {
		if files, err = expandPaths(args); err != nil {
			return err
		}
	}

	var store *cache.Store
	if !noCache {
		if store, err = cache.Open(cfg.CachePath(), logger); err != nil {
			return err
		}
		defer store.Close()
	}

	reporter := NewReporter(opts.Stdout, useColor(cfg.Color, opts.Stdout))
	loader := modules.NewLoader(cfg, store, logger)
	results, err := loader.CheckAll(cmd.Context(), files)

	warnings := 0
	for _, r := range results {
		for _, w := range r.Warnings {
			reporter.Warning(w, r.Source)
			warnings++
		}
	}
	if err != nil {
		reporter.Error(err)
		return ErrCheckFailed
	}
	cmd.Printf("checked %d module(s), %d warning(s)\n", len(results), warnings)
	return nil
}

// expandPaths replaces directories by the interchange files they contain.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		inDir, err := modules.ModuleFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, inDir...)
	}
	return files, nil
}
