package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/infofrac/internal/duckdb"
	"github.com/inodb/infofrac/internal/output"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Query cached annotation results",
		Long:  "Query a DuckDB result cache written by 'infofrac annotate --cache'.",
		Example: `  infofrac cache summary --cache results.duckdb
  infofrac cache lookup --cache results.duckdb chr12 25245400 G T`,
	}

	cmd.PersistentFlags().String("cache", "", "DuckDB cache file (default: cache.path from config)")

	cmd.AddCommand(newCacheSummaryCmd())
	cmd.AddCommand(newCacheLookupCmd())

	return cmd
}

func newCacheSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize cached values per INFO key and list cached inputs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.Keys()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSITES\tMEAN\tMIN\tMAX")
			for _, k := range keys {
				s, err := store.Summary(k)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", s.Key, s.Count,
					output.FormatVCFDouble(s.Mean), output.FormatVCFDouble(s.Min), output.FormatVCFDouble(s.Max))
			}

			sources, err := store.Sources()
			if err != nil {
				return err
			}
			if len(sources) > 0 {
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "SOURCE\tSITES\tFAILED\tRECORDED")
				for _, src := range sources {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", src.Path, src.Sites, src.Failed,
						src.RecordedAt.Format("2006-01-02 15:04:05"))
				}
			}
			return tw.Flush()
		},
	}
}

func newCacheLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <chrom> <pos> <ref> <alt>",
		Short: "Show cached values for one site",
		Args:  usageArgs(cobra.ExactArgs(4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return &usageError{fmt.Errorf("invalid position %q", args[1])}
			}

			store, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			vals, err := store.LookupSite(args[0], pos, args[2], args[3])
			if err != nil {
				return err
			}
			if len(vals) == 0 {
				return fmt.Errorf("site %s:%d %s>%s is not cached", args[0], pos, args[2], args[3])
			}
			for _, k := range slices.Sorted(maps.Keys(vals)) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, output.FormatVCFDouble(vals[k]))
			}
			return nil
		},
	}
}

// cachePath returns the --cache flag if given, else the configured cache.path.
func cachePath(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("cache"); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString("cache.path")
}

func openCache(cmd *cobra.Command) (*duckdb.Store, error) {
	path := cachePath(cmd)
	if path == "" {
		return nil, &usageError{fmt.Errorf("no cache file given (use --cache or set cache.path)")}
	}
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}
