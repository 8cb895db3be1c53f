package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/ingest"
	"inkpress/internal/prompt"
)

func (a *app) resolver(accept bool) prompt.Resolver {
	if accept {
		return prompt.Auto{}
	}
	return prompt.NewTerminal(a.in, a.out)
}

func (a *app) importer(accept bool) *ingest.Importer {
	return ingest.NewImporter(a.resolver(accept), ingest.WithLogger(a.log.With("component", "ingest")))
}

func (a *app) importCommand() *cobra.Command {
	var accept bool
	cmd := &cobra.Command{
		Use:   "import [files or dirs...]",
		Short: "Import files into the draft store",
		Long: `Import reads each file in turn, detects its format and stores the resulting
draft. Without arguments the configured inbox directory is read. A failing
file is reported and the rest of the batch still runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{a.cfg.Import.InboxDir}
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			files := ingest.ReadFiles(args, a.cfg.Import.MaxFileSize)
			if len(files) == 0 {
				fmt.Fprintln(a.out, "nothing to import")
				return nil
			}
			res := a.importer(accept).ImportBatch(cmd.Context(), files)

			stored := 0
			for _, d := range res.Drafts {
				if err := st.Put(d); err != nil {
					res.Failures = append(res.Failures, &domainerr.FileError{File: d.Source.FileName, Err: err})
					continue
				}
				stored++
				printDraftLine(a, d)
			}
			for _, f := range res.Failures {
				fmt.Fprintf(a.out, "FAIL %s [%s]: %v\n", f.File, domainerr.Kind(f.Err), f.Err)
			}
			fmt.Fprintf(a.out, "%d imported, %d failed\n", stored, len(res.Failures))

			if len(res.Failures) > 0 {
				return fmt.Errorf("%d of %d files failed", len(res.Failures), len(files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&accept, "accept", false, "accept suggested mappings and extracted PDF text without prompting")
	return cmd
}

func printDraftLine(a *app, d content.Draft) {
	fmt.Fprintf(a.out, "ok   %s -> %s (%s, %d blocks", d.Source.FileName, d.Meta.Slug, d.Source.Type, len(d.Blocks))
	if n := len(d.Warnings); n > 0 {
		fmt.Fprintf(a.out, ", %d warnings", n)
	}
	fmt.Fprintln(a.out, ")")
	for _, w := range d.Warnings {
		fmt.Fprintf(a.out, "     warning: %s\n", w)
	}
}
