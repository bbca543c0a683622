// Command rank-export pages through the keyword rank API and writes every
// keyword record of the configured date range to a CSV file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apamidi800/rank-export/pkg/config"
	"github.com/apamidi800/rank-export/pkg/exporter"
	"github.com/apamidi800/rank-export/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"base-url":    "api.base_url",
	"token":       "api.access_token",
	"start":       "api.start_date",
	"end":         "api.end_date",
	"engine":      "api.engine",
	"market":      "api.market",
	"device":      "api.devices",
	"limit":       "api.limit",
	"timeout":     "api.timeout",
	"output":      "output.path",
	"redis":       "cache.redis_addr",
	"pushgateway": "metrics.pushgateway_url",
	"log-level":   "log.level",
	"pretty":      "log.pretty",
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "rank-export",
		Short: "Export keyword rankings from the rank API to CSV",
		Long: `rank-export requests keyword pages from the rank API with increasing offsets
until a page comes back empty, then writes all records to a CSV file.

Every setting can be given in a config file, as a RANKEXPORT_ environment
variable (api.access_token is RANKEXPORT_API_ACCESS_TOKEN) or as a flag.
Flags win over the environment, which wins over the config file.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("base-url", "", "rank API endpoint URL")
	flags.String("token", "", "API access token")
	flags.String("start", "", "start date, YYYYMMDD")
	flags.String("end", "", "end date, YYYYMMDD")
	flags.String("engine", "", "search engine filter")
	flags.String("market", "", "market filter, e.g. en-us")
	flags.StringSlice("device", nil, "device filter, repeatable")
	flags.Int("limit", 100, "records per page")
	flags.Duration("timeout", 0, "timeout per request")
	flags.StringP("output", "o", "", "output CSV path")
	flags.String("redis", "", "Redis address for the page cache")
	flags.String("pushgateway", "", "Prometheus Pushgateway URL")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Bool("pretty", false, "human readable logs")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the export (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configFile)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rank-export", exporter.Version)
		},
	})

	return root
}

func runExport(cmd *cobra.Command, configFile string) error {
	v, err := config.NewViper(configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	_, err = exporter.Run(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}

// bindFlags binds the flags to their config keys. Only flags set on the
// command line take effect, so unset flags never mask env or file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
