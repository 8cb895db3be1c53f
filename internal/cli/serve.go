package cli

import (
	"github.com/spf13/cobra"

	"inkpress/internal/render"
	"inkpress/internal/serve"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview drafts locally and import files dropped into the inbox",
		Long: `serve starts the preview server. Files written to the inbox directory are
imported one at a time; decisions they need are listed at /decisions and
answered with POST /decisions/{id}. The draft store stays open while the
server runs, so other inkpress commands wait for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}
			tpl, err := render.NewTemplateRenderer(a.cfg.Export.ThemeDir, a.cfg.Export.ThemeName)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			s := serve.New(a.cfg, st, tpl, serve.WithLogger(a.log.With("component", "serve")))
			defer s.Close()
			return s.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return cmd
}
