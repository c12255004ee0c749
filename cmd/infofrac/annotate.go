package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/infofrac/internal/annotate"
	"github.com/inodb/infofrac/internal/duckdb"
	"github.com/inodb/infofrac/internal/output"
)

func newAnnotateCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "annotate [flags] <input-file>",
		Short: "Annotate a VCF or MAF file with FractionInformativeReads",
		Long: `Annotate every site of a VCF with FractionInformativeReads, the sum of all
samples' allelic depths (AD) divided by the site depth (DP). Samples without AD
contribute their MIN_DP instead. Use '-' to read from stdin.

MAF input is read as one site per row with a tumor and a normal sample taking
their AD from t_ref_count/t_alt_count and n_ref_count/n_alt_count; DP is
t_depth + n_depth.`,
		Example: `  infofrac annotate cohort.vcf.gz > annotated.vcf
  infofrac annotate -f tab -o fractions.tsv cohort.vcf
  infofrac annotate --strict --cache results.duckdb cohort.vcf
  infofrac annotate -f tab data_mutations.txt
  cat cohort.vcf | infofrac annotate -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, args[0], outputFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.StringP("input-format", "i", "auto", "Input format: auto, vcf, maf")
	flags.StringP("output-format", "f", "vcf", "Output format: vcf, tab")
	flags.Int("workers", 0, "Annotation workers (default: number of CPUs)")
	flags.Bool("strict", false, "Stop at the first site that cannot be annotated")
	flags.String("cache", "", "Also store results in this DuckDB file (default: cache.path from config)")

	bindFlag(flags, "annotate.input_format", "input-format")
	bindFlag(flags, "annotate.output_format", "output-format")
	bindFlag(flags, "annotate.workers", "workers")
	bindFlag(flags, "annotate.strict", "strict")

	return cmd
}

func runAnnotate(cmd *cobra.Command, inputPath, outputFile string) (retErr error) {
	parser, header, err := openInput(inputPath, viper.GetString("annotate.input_format"))
	if err != nil {
		return err
	}
	defer parser.Close()

	ann, err := annotate.NewAnnotator(annotate.NewFractionInformativeReads())
	if err != nil {
		return err
	}
	ann.SetLogger(logger)
	ann.SetWorkers(viper.GetInt("annotate.workers"))
	ann.SetStrict(viper.GetBool("annotate.strict"))

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer closeWith(f, "output file", &retErr)
		out = f
	}

	var writer annotate.SiteWriter
	switch format := viper.GetString("annotate.output_format"); format {
	case "vcf":
		vw := output.NewVCFWriter(out, header)
		vw.SetAnnotators(ann.Annotators())
		writer = vw
	case "tab":
		writer = output.NewTabWriter(out, ann.Keys())
	default:
		return &usageError{fmt.Errorf("unknown output format %q", format)}
	}

	var store *duckdb.Store
	if path := cachePath(cmd); path != "" {
		store, err = duckdb.Open(path)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer closeWith(store, "cache", &retErr)
		writer = output.NewMultiWriter(writer, duckdb.NewCacheWriter(store))
		logger.Debug("caching results", zap.String("path", path))
	}

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	stats, err := ann.AnnotateAll(cmd.Context(), parser, writer)
	if err != nil {
		return err
	}

	if store != nil && inputPath != "-" {
		if err := recordSource(store, inputPath, stats); err != nil {
			return err
		}
	}

	return nil
}

// closeWith closes c and reports a close failure through err unless an
// earlier error is already being returned.
func closeWith(c io.Closer, what string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", what, cerr)
	}
}

// recordSource stores the input fingerprint so later runs can tell whether
// the cached results are current.
func recordSource(store *duckdb.Store, inputPath string, stats annotate.Stats) error {
	fp, err := duckdb.StatFile(inputPath)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	upToDate, err := store.SourceUpToDate(fp)
	if err != nil {
		return err
	}
	if upToDate {
		logger.Info("input unchanged since last cached run", zap.String("path", inputPath))
	}
	return store.RecordSource(fp, stats.SitesRead, stats.SitesFailed)
}
