package main

import (
	"encoding/json"
	"fmt"

	"github.com/KOMKZ/go-yogan-asyncevent/config"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/KOMKZ/go-yogan-asyncevent/health"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/KOMKZ/go-yogan-asyncevent/validator"
	"github.com/spf13/cobra"
)

// effectiveConfig 合并、填充默认值后的各配置段
type effectiveConfig struct {
	Files     []string             `json:"files"`
	Logger    logger.ManagerConfig `json:"logger"`
	Telemetry telemetry.Config     `json:"telemetry"`
	Event     event.Config         `json:"event"`
	Health    health.Config        `json:"health"`
}

func newCheckConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load, validate and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.flags.Telemetry = opts.flags.Metrics || opts.flags.Tracing
			loader, err := config.NewLoaderBuilder().
				WithConfigPath(opts.configDir).
				WithConfigFile(opts.configFile).
				WithEnvPrefix(opts.envPrefix).
				WithFlags(&opts.flags).
				Build()
			if err != nil {
				return err
			}

			cfg, err := loadEffective(loader)
			if err != nil {
				return err
			}

			if err := config.ValidateAll(
				section{"logger", cfg.Logger},
				section{"telemetry", cfg.Telemetry},
				section{"event", cfg.Event},
				section{"health", cfg.Health},
			); err != nil {
				for field, msg := range validator.FieldErrors(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
				}
				return fmt.Errorf("invalid configuration: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

// section 带配置段名的校验，字段错误转换为 LayeredError
type section struct {
	name string
	v    validator.Validatable
}

func (s section) Validate() error {
	if err := validator.ValidateRequest(s.v); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

func loadEffective(loader *config.Loader) (effectiveConfig, error) {
	cfg := effectiveConfig{
		Files:     loader.GetLoadedFiles(),
		Logger:    logger.DefaultManagerConfig(),
		Telemetry: telemetry.DefaultConfig(),
		Event:     event.DefaultConfig(),
		Health:    health.DefaultConfig(),
	}

	sections := []struct {
		key string
		v   interface{}
	}{
		{"logger", &cfg.Logger},
		{"telemetry", &cfg.Telemetry},
		{"event", &cfg.Event},
		{"health", &cfg.Health},
	}
	for _, s := range sections {
		if !loader.IsSet(s.key) {
			continue
		}
		if err := loader.Unmarshal(s.key, s.v); err != nil {
			return cfg, fmt.Errorf("load %s config: %w", s.key, err)
		}
	}

	cfg.Logger.ApplyDefaults()
	cfg.Telemetry.ApplyDefaults()
	cfg.Event.ApplyDefaults()
	cfg.Health.ApplyDefaults()
	return cfg, nil
}
