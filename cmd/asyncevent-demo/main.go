// asyncevent-demo 演示四种调用策略：并行、顺序、并行收集失败、顺序遇错即停
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/di"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// demoFlags 命令行参数，通过 config tag 覆盖配置文件
type demoFlags struct {
	PoolSize  int    `config:"event.pool_size"`
	Metrics   bool   `config:"event.metrics,telemetry.metrics.enabled"`
	Tracing   bool   `config:"event.tracing,telemetry.tracing.enabled"`
	Telemetry bool   `config:"telemetry.enabled"`
	Exporter  string `config:"telemetry.exporter.type"`
	LogLevel  string `config:"logger.level"`
}

type options struct {
	configDir  string
	configFile string
	envPrefix  string
	delay      time.Duration
	flags      demoFlags
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "asyncevent-demo",
		Short:         "Run the async event invocation scenarios",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts, nil)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configDir, "config", "c", "configs", "configuration directory")
	pf.StringVar(&opts.configFile, "config-file", "", "base configuration file (default config.yaml)")
	pf.StringVar(&opts.envPrefix, "env-prefix", "ASYNCEVENT", "environment variable prefix")
	pf.DurationVar(&opts.delay, "delay", 100*time.Millisecond, "delay of the first handler, the second waits twice as long")
	pf.IntVar(&opts.flags.PoolSize, "pool-size", 0, "async pool size")
	pf.BoolVar(&opts.flags.Metrics, "metrics", false, "record invocation metrics")
	pf.BoolVar(&opts.flags.Tracing, "tracing", false, "open one span per invocation")
	pf.StringVar(&opts.flags.Exporter, "exporter", "", "telemetry exporter: stdout, otlp or noop")
	pf.StringVar(&opts.flags.LogLevel, "log-level", "", "log level, overrides config file and environment")

	root.AddCommand(&cobra.Command{
		Use:       "run [scenario...]",
		Short:     "Run selected scenarios (all when none given)",
		ValidArgs: scenarioNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts, args)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scenario names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range scenarios {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", s.name, s.title)
			}
		},
	})
	root.AddCommand(newCheckConfigCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Start the runtime and print the health report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := di.NewApplication(opts.appOptions(cmd)...)
			return app.Run(cmd.Context(), func(ctx context.Context, app *di.Application) error {
				report := app.Health(ctx)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				if !report.IsHealthy() {
					return fmt.Errorf("runtime is %s", report.Status)
				}
				return nil
			})
		},
	})

	return root
}

func (o *options) appOptions(cmd *cobra.Command) []di.AppOption {
	o.flags.Telemetry = o.flags.Metrics || o.flags.Tracing
	return []di.AppOption{
		di.WithName("asyncevent-demo"),
		di.WithVersion(version),
		di.WithConfig(di.ConfigOptions{
			ConfigPath: o.configDir,
			ConfigFile: o.configFile,
			EnvPrefix:  o.envPrefix,
			Flags:      &o.flags,
		}),
		// exporter 输出走 stderr，不与场景输出混在一起
		di.WithTelemetryOptions(telemetry.WithWriter(cmd.ErrOrStderr())),
	}
}

func runDemo(cmd *cobra.Command, opts *options, names []string) error {
	list, err := selectScenarios(names)
	if err != nil {
		return err
	}

	app := di.NewApplication(opts.appOptions(cmd)...)
	return app.Run(cmd.Context(), func(ctx context.Context, app *di.Application) error {
		return runScenarios(ctx, app.Event(), cmd.OutOrStdout(), list, opts.delay)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
