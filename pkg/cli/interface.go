package cli

import (
	"fmt"
	"io"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/funvibe/vellum/internal/cache"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

func interfaceCmd(opts *Options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "interface <module>",
		Short: "Print the cached public interface of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := cache.Open(cfg.CachePath(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if raw {
				_, err = pretty.Fprintf(opts.Stdout, "%# v\n", entry.Info)
				return err
			}
			printInterface(opts.Stdout, entry)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Dump the decoded interface structure")
	return cmd
}

func printInterface(w io.Writer, entry *cache.Entry) {
	info := entry.Info
	fmt.Fprintf(w, "module %s (%s)\n", info.Name, info.Kind)
	fmt.Fprintf(w, "package %s, build %s, cached %s\n", entry.Package, entry.BuildID, entry.CreatedAt.Format("2006-01-02 15:04:05"))

	if names := info.TypeNames(); len(names) > 0 {
		fmt.Fprintln(w, "\ntypes:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s\n", typeHeader(name, info.Types[name], info.TypesConstructors[name]))
		}
	}
	if names := info.ValueNames(); len(names) > 0 {
		fmt.Fprintln(w, "\nvalues:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, typesystem.NewPrinter(nil).Print(info.Values[name].Type))
		}
	}
}

func typeHeader(name string, tc *symbols.TypeConstructor, constructors []string) string {
	p := typesystem.NewPrinter(nil)
	header := p.Print(tc.Type)
	if app, ok := tc.Type.(*typesystem.App); !ok || app.Name != name {
		// An alias: show what it stands for.
		header = name + " = " + header
	}
	if app, ok := tc.Type.(*typesystem.App); ok && app.Opaque {
		header = "opaque " + header
	}
	if len(constructors) > 0 {
		header += fmt.Sprintf(" %v", constructors)
	}
	return header
}
