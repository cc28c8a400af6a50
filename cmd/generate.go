package root

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/chuhlomin/diff/internal/git"
	"github.com/chuhlomin/diff/internal/site"
)

var (
	output    string
	noContent bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a static site with every tag pair's change list",
	RunE: func(cmd *cobra.Command, args []string) error {
		if output != "" {
			cfg.Generate.Output = output
		}
		if noContent {
			cfg.Generate.Content = false
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		start := time.Now()
		log.Info("opening repository", "src", cfg.Repo.URL)
		repo, err := git.Open(ctx, cfg.Repo.URL)
		if err != nil {
			return fmt.Errorf("open repository: %w", err)
		}

		tmpl, err := site.LoadTemplates(cfg.Templates.Dir)
		if err != nil {
			return err
		}

		g := &site.Generator{
			Source:    repo,
			Templates: tmpl,
			Output:    cfg.Generate.Output,
			Content:   cfg.Generate.Content,
			Log:       log,
		}
		if err := g.Run(ctx); err != nil {
			return err
		}

		log.Info("done", "output", cfg.Generate.Output, "took", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides generate.output)")
	generateCmd.Flags().BoolVar(&noContent, "no-content", false, "Skip writing file contents under content/")
}
