package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chuhlomin/diff/internal/config"
	"github.com/chuhlomin/diff/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg config.Config
	log logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "diff",
	Short:         "Browse changes between tags of a Git repository",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log, err = newLogger(os.Stderr)
		return err
	},
}

func newLogger(w *os.File) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, cfg.Log.Format, level)
}

func Execute() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd, generateCmd, viewCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
