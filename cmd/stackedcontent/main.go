package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/stacked"
	"github.com/goliatone/go-stacked-content/pkg/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath   string
	schemasDir   string
	partialsRoot string
	logLevel     string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:           "stackedcontent",
	Short:         "Stacked content tooling",
	Long:          "Convert, validate, render and edit stacked content values, or serve the editor backoffice API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&schemasDir, "schemas", "s", "", "Directory of element type definition files to seed")
	rootCmd.PersistentFlags().StringVar(&partialsRoot, "root", ".", "Directory partial paths are resolved against")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds a bootstrapped module for one command run.
type app struct {
	module *stacked.Module
	logger logger.Logger
	close  func() error
}

func bootstrap(ctx context.Context) (*app, error) {
	lgr := logger.NewWithWriter(os.Stderr, logger.ParseLevel(logLevel))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	providers, closeFn, err := storage.Open(ctx, cfg.Persistence, lgr)
	if err != nil {
		return nil, err
	}

	module, err := stacked.NewModule(stacked.ModuleOptions{
		Config:   cfg,
		Storage:  providers,
		Logger:   lgr,
		Partials: os.DirFS(partialsRoot),
	})
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	if schemasDir != "" {
		if err := module.Seed(ctx, os.DirFS(schemasDir)); err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("seed schemas: %w", err)
		}
	}
	return &app{module: module, logger: lgr, close: closeFn}, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load(config.Defaults())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return config.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config.Load(raw)
}

// readValue reads the stored value from the file named by args[0], or from
// stdin when no file or "-" is given.
func readValue(in io.Reader, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
