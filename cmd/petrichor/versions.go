package main

import (
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/petrichor-player/petrichor/internal"
)

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	var indexURL string
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the runtime builds available for bundles",
		Args:  argsBetween(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if indexURL != "" {
				cfg.IndexURL = indexURL
			}
			data, err := internal.NewHTTPFetcher(30*time.Second).Fetch(cmd.Context(), cfg.IndexURL)
			if err != nil {
				return err
			}
			reg, err := internal.ParseRegistry(data)
			if err != nil {
				return &internal.FetchError{URL: cfg.IndexURL, Err: err}
			}
			for _, v := range reg.Versions() {
				b := reg[v]
				color.Printf("<green>%s</>\t%s <grey>(pixi %s)</>\n", v, b.Path, b.PixiVersion)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&indexURL, "index", "", "runtime index url")
	return cmd
}
