package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inkpress/internal/store"
)

func (a *app) draftsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List stored drafts, newest import first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(store.ListOptions{Size: limit})
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "no drafts")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tSOURCE\tIMPORTED\tWARNINGS")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					s.Slug, s.Title, s.SourceType, s.ImportedAt.Local().Format("2006-01-02 15:04"), s.Warnings)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many drafts")
	return cmd
}
