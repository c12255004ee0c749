package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// setting describes a key that can be stored in the config file.
type setting struct {
	key  string
	kind string // string, int or bool
	help string
}

var settings = []setting{
	{"annotate.input_format", "string", "input format: auto, vcf, maf"},
	{"annotate.output_format", "string", "output format: vcf, tab"},
	{"annotate.workers", "int", "annotation workers, 0 for one per CPU"},
	{"annotate.strict", "bool", "stop at the first site that cannot be annotated"},
	{"cache.path", "string", "DuckDB file every annotate run also writes to"},
	{"log.verbose", "bool", "debug logging"},
}

func lookupSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

func newConfigCmd() *cobra.Command {
	var keys strings.Builder
	for _, s := range settings {
		fmt.Fprintf(&keys, "\n  %-24s %s", s.key, s.help)
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage infofrac configuration",
		Long: "Show, get, or set configuration values. Config is stored in ~/" + configName +
			" and can be overridden with INFOFRAC_* environment variables.\n\nKeys:" + keys.String(),
		Example: `  infofrac config                               # show settings and where they come from
  infofrac config set annotate.strict true      # abort on malformed sites
  infofrac config set cache.path ~/fir.duckdb   # always cache results
  infofrac config get annotate.workers          # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the config file",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get the effective value of a configuration key",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// runConfigShow prints every known setting with its effective value and
// the layer it came from (env, config or default).
func runConfigShow(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# Config file: %s\n", configFilePath())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, s := range settings {
		val := viper.Get(s.key)
		source := settingSource(s.key)
		if val == nil {
			fmt.Fprintf(tw, "%s\t-\t%s\n", s.key, source)
			continue
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\n", s.key, val, source)
	}
	return tw.Flush()
}

func settingSource(key string) string {
	envKey := "INFOFRAC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	switch {
	case os.Getenv(envKey) != "":
		return "env"
	case viper.InConfig(key):
		return "config"
	case viper.Get(key) != nil:
		return "default"
	default:
		return "unset"
	}
}

// runConfigSet stores one typed value in the config file, leaving the
// file's other keys as they are. Defaults and env values are not written.
func runConfigSet(cmd *cobra.Command, key, value string) error {
	s, ok := lookupSetting(key)
	if !ok {
		return &usageError{fmt.Errorf("unknown config key %q", key)}
	}

	var typed interface{}
	switch s.kind {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &usageError{fmt.Errorf("%s expects true or false, got %q", key, value)}
		}
		typed = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return &usageError{fmt.Errorf("%s expects a non-negative integer, got %q", key, value)}
		}
		typed = n
	default:
		typed = value
	}

	cfgFile := configFilePath()
	if cfgFile == "" {
		return errors.New("cannot determine config file location")
	}

	doc, err := readConfigFile(cfgFile)
	if err != nil {
		return err
	}
	setNested(doc, strings.Split(key, "."), typed)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(cfgFile, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, typed, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

func configFilePath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configName)
}

// readConfigFile returns the config file as a nested map; a missing file
// is an empty document.
func readConfigFile(path string) (map[string]interface{}, error) {
	doc := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]interface{})
	}
	return doc, nil
}

func setNested(doc map[string]interface{}, path []string, value interface{}) {
	for _, p := range path[:len(path)-1] {
		child, ok := doc[p].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			doc[p] = child
		}
		doc = child
	}
	doc[path[len(path)-1]] = value
}
