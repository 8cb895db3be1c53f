package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inkpress/internal/domain/content"
	"inkpress/internal/export"
	"inkpress/internal/render"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		file   string
		accept bool
	)
	cmd := &cobra.Command{
		Use:   "export <slug> | --file <path>",
		Short: "Publish a stored draft, or import and publish one file",
		Args: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) != 1 {
				return errors.New("export needs a draft slug or --file")
			}
			if file != "" && len(args) > 0 {
				return errors.New("give either a slug or --file, not both")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := render.NewTemplateRenderer(a.cfg.Export.ThemeDir, a.cfg.Export.ThemeName)
			if err != nil {
				return err
			}

			var d content.Draft
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				d, err = a.importer(accept).Import(cmd.Context(), file, data)
				if err != nil {
					return err
				}
			} else {
				st, err := a.openStore()
				if err != nil {
					return err
				}
				d, err = st.Get(args[0])
				st.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			}

			ex := export.NewExporter(a.cfg, tpl, a.log.With("component", "export"))
			res, err := ex.Export(cmd.Context(), d)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "exported %s\n", res.Slug)
			fmt.Fprintf(a.out, "  html     %s\n", res.HTMLPath)
			fmt.Fprintf(a.out, "  archive  %s\n", res.ArchivePath)
			fmt.Fprintf(a.out, "  feed     %s (%d entries)\n", res.FeedPath, len(res.Feed))
			for _, p := range res.Assets {
				fmt.Fprintf(a.out, "  asset    %s\n", p)
			}
			if res.Reused > 0 {
				fmt.Fprintf(a.out, "  reused   %d image references\n", res.Reused)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(a.out, "  warning: %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "import this file and export it without storing a draft")
	cmd.Flags().BoolVar(&accept, "accept", false, "with --file, accept suggestions without prompting")
	return cmd
}
