package root

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chuhlomin/diff/internal/fetch"
	"github.com/chuhlomin/diff/internal/models"
	"github.com/chuhlomin/diff/internal/ui"
)

var (
	baseURL string
	fromTag string
	toTag   string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse a running server or a generated site in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if baseURL != "" {
			cfg.View.BaseURL = baseURL
		}
		if fromTag != "" {
			cfg.View.From = fromTag
		}
		if toTag != "" {
			cfg.View.To = toTag
		}

		// the terminal belongs to the UI; logs go to a file
		f, err := os.OpenFile(cfg.View.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		if log, err = newLogger(f); err != nil {
			return err
		}

		client, err := newClient(cfg.View.BaseURL)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		opts := ui.DefaultOptions()
		opts.Minimap = cfg.View.Minimap

		m := ui.NewModel(ctx, client, ui.ViewOptions{
			Tags:     models.TagPair{From: cfg.View.From, To: cfg.View.To},
			Language: cfg.View.Language,
			Layout:   ui.Layout{Threshold: cfg.View.StackBelow},
			Widget:   opts,
		}, log)
		defer m.Close()

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		m.Attach(p.Send)

		log.Info("viewing", "base", cfg.View.BaseURL)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	},
}

// newClient targets an http(s) server, or a generated site directory
// read straight from disk.
func newClient(base string) (*fetch.Client, error) {
	u, err := url.Parse(base)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Path == "" {
			u.Path = "/"
		}
		return fetch.NewClient(u, nil), nil
	}

	dir, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("view.base_url %q is neither an http(s) URL nor a directory", base)
	}

	return fetch.NewClient(
		&url.URL{Scheme: "file", Path: "/"},
		&http.Client{Transport: fetch.LocalTransport{FS: os.DirFS(dir)}},
	), nil
}

func init() {
	viewCmd.Flags().StringVar(&baseURL, "base", "", "Server URL or generated site directory (overrides view.base_url)")
	viewCmd.Flags().StringVar(&fromTag, "from", "", "Initial \"from\" tag")
	viewCmd.Flags().StringVar(&toTag, "to", "", "Initial \"to\" tag")
}
