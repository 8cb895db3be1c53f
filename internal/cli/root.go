// Package cli wires the inkpress commands: import, export, drafts and serve.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inkpress/internal/domain/config"
	"inkpress/internal/logger"
	"inkpress/internal/store"
)

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile  string
	envFile  string
	logLevel string

	cfg config.Config
	log *slog.Logger
}

// NewRootCommand builds the command tree reading prompts from in and writing
// reports to out and logs to errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "inkpress",
		Short: "Import Markdown, JSON and PDF into article drafts and publish them",
		Long: `inkpress turns loosely structured documents into a canonical block draft,
asking for help only when a field cannot be inferred, and exports drafts as
static HTML, a Markdown archive and a JSON feed entry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initializeConfig()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./inkpress.yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")

	root.AddCommand(
		a.importCommand(),
		a.exportCommand(),
		a.draftsCommand(),
		a.serveCommand(),
	)
	return root
}

// Execute runs the CLI against the process streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (a *app) initializeConfig() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Log.Level, cfg.Log.Format, a.errOut)
	logger.SetLogger(a.log)
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(store.OpenOptions{Path: a.cfg.Import.StorePath})
	if err != nil {
		return nil, fmt.Errorf("open draft store %s: %w", a.cfg.Import.StorePath, err)
	}
	return st, nil
}
