package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petrichor-player/petrichor/internal"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		templateDir string
		concurrency int
		yes         bool
	)
	cmd := &cobra.Command{
		Use:   "generate <project-identifier> <destination-path> [domain-allowlist-file]",
		Short: "Create an offline bundle for a project",
		Long: `Create an offline bundle for a project.

The project identifier may be a bare project id, a project link, any URL ending
in the project id, or a file:// URL of a downloaded project. The destination
must not exist yet. The optional allowlist file is a json or yaml list of
domains whose project links are accepted.`,
		Args: argsBetween(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if len(args) == 3 {
				domains, err := internal.LoadDomains(args[2])
				if err != nil {
					return err
				}
				if err := confirmDomains(domains, yes); err != nil {
					return err
				}
				cfg.Domains = domains
			}

			logger := opts.logger()
			defer logger.Sync() //nolint:errcheck

			builder, err := internal.NewBuilder(cfg, internal.NewHTTPFetcher(60*time.Second), logger)
			if err != nil {
				return err
			}
			if templateDir != "" {
				if _, err := os.Stat(templateDir); err != nil {
					return &internal.ArgumentError{Msg: fmt.Sprintf("template directory: %s", err)}
				}
				builder.UseTemplate(os.DirFS(templateDir))
			}

			res, err := builder.Generate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			color.Printf("Bundle for <green>%s</> ready at <green>%s</> (runtime %s, %d images, %d sounds)\n",
				color.ClearTag(res.Title), args[1], res.RuntimeVersion, res.Images, res.Sounds)
			if len(res.Skipped) > 0 {
				color.Warn.Printf("Skipped %d unsafe asset names: %s\n", len(res.Skipped), strings.Join(res.Skipped, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateDir, "template", "", "use this directory instead of the built-in template")
	cmd.Flags().IntVar(&concurrency, "concurrency", 6, "concurrent asset downloads")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept the domain allowlist without asking")
	return cmd
}

func confirmDomains(domains []string, yes bool) error {
	color.Warn.Printf("!!!!! Allowing domains from file: %s !!!!!\n", strings.Join(domains, ", "))
	if yes || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	ok, err := confirmation.New("Fetch projects from these domains?", confirmation.No).RunPrompt()
	if err != nil {
		return err
	}
	if !ok {
		return &internal.ArgumentError{Msg: "domain allowlist rejected"}
	}
	return nil
}
