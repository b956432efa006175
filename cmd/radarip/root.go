package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/radarip/radarip/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "radarip",
		Short: "Find the IPv4 address of a device by its MAC address",
		Long: "radarip logs into every host of an IPv4 range in parallel, lists its\n" +
			"network interfaces and reports the host carrying the requested MAC address.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags first, so --config can itself come from RADAR_CONFIG.
			if err := initFlags(cmd); err != nil {
				return err
			}
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newTUICmd(a))
	rootCmd.AddCommand(newProfilesCmd(a))

	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
	}
	if a.logFormat != "" {
		cfg.Logging.Format = strings.ToLower(a.logFormat)
	}
	if !cfg.Logging.IsLogLevelValid() {
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}

	a.cfg = cfg
	a.logger = initLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(a.logger)
	return nil
}

// initFlags fills unset flags from RADAR_* environment variables, so
// --target-mac can come from RADAR_TARGET_MAC.
func initFlags(cmd *cobra.Command) error {
	v := viper.New()

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			bindErr = fmt.Errorf("environment value for --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// initLogger writes to w so that stdout stays reserved for results.
func initLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var handler slog.Handler

	// Set log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Set format
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func printTable(w io.Writer, rows []map[string]string, order []string) {
	tw := tabwriter.NewWriter(w, 4, 8, 2, ' ', 0)

	fmt.Fprintln(tw, strings.ToUpper(strings.Join(order, "\t")))
	for _, row := range rows {
		var output []string
		for _, column := range order {
			output = append(output, row[column])
		}

		fmt.Fprintln(tw, strings.Join(output, "\t"))
	}

	tw.Flush()
}
