package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petrichor-player/petrichor/internal"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve <bundle-dir>",
		Short: "Preview a generated bundle in the browser",
		Args:  argsBetween(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundleDir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync() //nolint:errcheck

			server, err := internal.NewServer(bundleDir, port, logger)
			if err != nil {
				return &internal.ArgumentError{Msg: err.Error()}
			}
			if watch {
				go func() {
					if err := server.Watch(cmd.Context(), 500*time.Millisecond); err != nil {
						logger.Error("watching bundle", zap.Error(err))
					}
				}()
			}
			fmt.Printf("Serving %s\n", bundleDir)
			fmt.Printf("Ready on :%d ✏️✏️✏️\n", port)
			return server.Serve()
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "port for server")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload open pages when the bundle changes")
	return cmd
}
