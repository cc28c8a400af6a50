package root

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chuhlomin/diff/internal/git"
	"github.com/chuhlomin/diff/internal/server"
	"github.com/chuhlomin/diff/internal/site"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tag selectors, change lists and file contents over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("opening repository", "src", cfg.Repo.URL)
		repo, err := git.Open(ctx, cfg.Repo.URL)
		if err != nil {
			return fmt.Errorf("open repository: %w", err)
		}

		tmpl, err := site.LoadTemplates(cfg.Templates.Dir)
		if err != nil {
			return err
		}

		srv := server.New(repo, tmpl, log)
		if cfg.Templates.Watch {
			if err := srv.WatchTemplates(ctx, cfg.Templates.Dir); err != nil {
				return err
			}
		}

		return server.ListenAndServe(ctx, cfg.Server.Addr, srv, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}
