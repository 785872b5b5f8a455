package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	githubadapter "github.com/ericfisherdev/mergedsince/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/mergedsince/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/mergedsince/internal/adapter/driving/render"
	"github.com/ericfisherdev/mergedsince/internal/application"
	"github.com/ericfisherdev/mergedsince/internal/config"
	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// options holds flags shared by every command.
type options struct {
	configPath string
	format     string
	noHistory  bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "mergedsince <owner> <repo> <since>",
		Short: "List pull requests merged after a given pull request",
		Long: `mergedsince pages through a repository's closed pull requests, most recently
updated first, until it finds pull request <since>. It then prints every pull
request merged strictly after <since> was merged.

Authentication is read from GITHUB_TOKEN (or the variable named by
github.token_env in the config file).`,
		Version:       version,
		Args:          rootArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, _ := parseSince(args[2])
			repo := model.Repository{Owner: args[0], Name: args[1]}
			return runSelect(cmd.Context(), opts, repo, since)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $MERGEDSINCE_CONFIG or ./"+config.DefaultConfigFile+")")
	root.PersistentFlags().StringVar(&opts.format, "format", "", "output format: markdown, json or html")
	root.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record this run in the history database")

	root.AddCommand(newHistoryCommand(opts), newShowCommand(opts))
	return root
}

func rootArgs(_ *cobra.Command, args []string) error {
	if len(args) != 3 {
		return usagef("expected <owner> <repo> <since>, got %d argument(s)", len(args))
	}
	if _, err := parseSince(args[2]); err != nil {
		return &usageError{err: err}
	}
	return nil
}

// parseSince parses a pull request number, which must be a positive integer.
func parseSince(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("since must be a positive pull request number, got %q", s)
	}
	return n, nil
}

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded selection reports, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), opts, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports to list (0 for all)")
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Render a recorded selection report",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("expected <report-id>, got %d argument(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0])
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return usagef("%s takes no arguments, got %d", cmd.Name(), len(args))
	}
	return nil
}

// env is the wired application for one command invocation.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer render.Renderer
	store    driven.ReportStore
	closeDB  func()
}

func (e *env) close() {
	if e.closeDB != nil {
		e.closeDB()
	}
}

// setup loads configuration, installs the logger and opens the history store
// when enabled. Flags override configuration. A selecting command fails fast
// on a missing credential before anything is opened, and runs without history
// when the store cannot be opened. The history commands need the store.
func setup(ctx context.Context, opts *options, selecting bool) (*env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.format != "" {
		format, err := model.ParseFormat(opts.format)
		if err != nil {
			return nil, usagef("--format has %v", err)
		}
		cfg.Format = format
	}
	if opts.noHistory {
		cfg.HistoryEnabled = false
	}
	if selecting {
		if err := cfg.RequireToken(); err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.NewTextHandler(opts.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	renderer, err := render.ForFormat(cfg.Format)
	if err != nil {
		return nil, usagef("%v", err)
	}

	e := &env{cfg: cfg, logger: logger, renderer: renderer}
	if !cfg.HistoryEnabled {
		return e, nil
	}

	store, closeDB, err := openStore(ctx, cfg.DBPath, logger)
	if err != nil {
		if !selecting {
			return nil, err
		}
		logger.Warn("history disabled", "path", cfg.DBPath, "error", err)
		return e, nil
	}
	e.store = store
	e.closeDB = closeDB
	return e, nil
}

// openStore opens and migrates the history database at path.
func openStore(ctx context.Context, path string, logger *slog.Logger) (driven.ReportStore, func(), error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		closeDB()
		return nil, nil, err
	}
	logger.Debug("history database opened", "path", path)

	return sqliteadapter.NewReportRepo(db), closeDB, nil
}

func runSelect(ctx context.Context, opts *options, repo model.Repository, since int) error {
	e, err := setup(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := githubadapter.NewClient(e.cfg.GitHubToken, e.cfg.APIBaseURL, e.cfg.HTTPTimeout, e.logger)
	if err != nil {
		return err
	}

	svc := application.NewService(client, e.store, e.cfg.PerPage, e.logger)
	report, err := svc.Run(ctx, repo, since)
	if err != nil {
		return err
	}

	return e.renderer.Render(ctx, opts.stdout, report)
}

func runHistory(ctx context.Context, opts *options, limit int) error {
	e, err := setup(ctx, opts, false)
	if err != nil {
		return err
	}
	defer e.close()

	svc := application.NewService(nil, e.store, 0, e.logger)
	summaries, err := svc.History(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPOSITORY\tSINCE\tPULLS\tGENERATED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t#%d\t%d\t%s\n",
			s.ID, s.Repository.FullName(), s.Since, s.PullCount,
			s.GeneratedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func runShow(ctx context.Context, opts *options, id string) error {
	e, err := setup(ctx, opts, false)
	if err != nil {
		return err
	}
	defer e.close()

	svc := application.NewService(nil, e.store, 0, e.logger)
	report, err := svc.Report(ctx, id)
	if errors.Is(err, driven.ErrReportNotFound) {
		return fmt.Errorf("no recorded report with id %s", id)
	}
	if err != nil {
		return err
	}

	return e.renderer.Render(ctx, opts.stdout, report)
}
