// Package main provides the infofrac command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".infofrac.yaml"

// logger is built by the root command before any subcommand runs.
var logger = zap.NewNop()

// usageError marks errors caused by invalid command-line usage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	logger.Sync() //nolint:errcheck
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "infofrac",
		Short: "Annotate VCF sites with the fraction of informative reads",
		Long: `infofrac computes FractionInformativeReads = sum(AD) / DP for every site of a
multi-sample VCF and writes it to the INFO column.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(viper.GetBool("log.verbose"))
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+")")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	viper.BindPFlag("log.verbose", cmd.PersistentFlags().Lookup("verbose")) //nolint:errcheck

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "infofrac version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// usageArgs wraps a cobra argument validator so its failures exit with ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// initConfig reads the config file and environment into viper.
// A missing config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetDefault("annotate.input_format", "auto")
	viper.SetDefault("annotate.output_format", "vcf")
	viper.SetDefault("annotate.workers", 0)
	viper.SetDefault("annotate.strict", false)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, configName))
		}
	}

	viper.SetEnvPrefix("INFOFRAC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlag binds a command flag to a viper key so config and env values
// apply when the flag is not set.
func bindFlag(flags *pflag.FlagSet, key, name string) {
	viper.BindPFlag(key, flags.Lookup(name)) //nolint:errcheck
}
