package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-curate/internal/config"
	"github.com/askiada/go-curate/internal/resultstore"
	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/drawer"
	"github.com/askiada/go-curate/pkg/curate/measure"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

type curateFlags struct {
	workflow string
	input    string
	output   string
	format   string
	unsafe   bool
	report   string
	db       string
	draw     string
	workers  int
	history  bool
}

func newCurateCommand(ctx *commandContext) *cobra.Command {
	var flags curateFlags

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Run a workflow file over a file of records",
		Long: `Run a workflow file over a file of records.

Each input line is tab separated: a SMILES, an id and a SMILES, or an id, a
SMILES and a label. Results go to stdout unless --output is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.workflow) == "" || strings.TrimSpace(flags.input) == "" {
				return errors.New("--workflow and --input are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overrides := config.Overrides{
				ReportPath:  flags.report,
				ResultsDB:   flags.db,
				DrawingPath: flags.draw,
			}
			if cmd.Flags().Changed("workers") {
				overrides.Workers = &flags.workers
			}
			if cmd.Flags().Changed("history") {
				overrides.History = &flags.history
			}
			if err := cfg.Apply(overrides); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return runCurate(cmd, cfg, logger, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.workflow, "workflow", "w", "", "Workflow file to run")
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Tab separated input records")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results here instead of stdout")
	cmd.Flags().StringVar(&flags.format, "format", "tsv", "Result format (tsv, json)")
	cmd.Flags().BoolVar(&flags.unsafe, "unsafe", false, "Run without verifying the workflow file")
	cmd.Flags().StringVar(&flags.report, "report", "", "Write the curation report to this file")
	cmd.Flags().StringVar(&flags.db, "db", "", "Record the run in this SQLite database")
	cmd.Flags().StringVar(&flags.draw, "draw", "", "Write a DOT graph of the run to this file")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Goroutines per step (0 picks a count)")
	cmd.Flags().BoolVar(&flags.history, "history", false, "Keep a snapshot of each record before every update")
	return cmd
}

func runCurate(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, flags curateFlags) error {
	writeResults, err := resultWriter(flags.format)
	if err != nil {
		return err
	}
	inputs, err := readInputFile(flags.input)
	if err != nil {
		return err
	}

	opts := []curate.Option{
		curate.WithLogger(logger),
		curate.WithWorkers(cfg.Engine.Workers),
		curate.WithHistory(cfg.Engine.TrackHistory),
	}
	if cfg.Engine.SuppressWarnings {
		opts = append(opts, curate.SuppressWarnings())
	}
	if flags.unsafe {
		opts = append(opts, curate.Unsafe())
	}
	if cfg.Output.DrawingPath != "" {
		msr := measure.NewDefaultMeasure()
		opts = append(opts, curate.WithRunOptions(
			measure.RunMeasure(msr),
			drawer.RunDrawer(drawer.NewDOTDrawer(cfg.Output.DrawingPath), msr),
		))
	}

	wf, err := curate.LoadFile(flags.workflow, steps.Default, opts...)
	if err != nil {
		return err
	}
	if wf.Trust() == curate.Untrusted {
		fmt.Fprintln(cmd.ErrOrStderr(), renderUntrustedBanner(shouldColorize(cmd.ErrOrStderr())))
	}

	res, err := wf.Curate(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	if err := writeTo(flags.output, cmd.OutOrStdout(), writeResults(res)); err != nil {
		return err
	}
	if cfg.Output.ReportPath != "" {
		if err := writeTo(cfg.Output.ReportPath, nil, res.WriteReport); err != nil {
			return err
		}
	}
	if cfg.Output.ResultsDB != "" {
		if err := saveRun(cmd.Context(), cfg.Output.ResultsDB, res); err != nil {
			return err
		}
		logger.Info("run recorded", slog.String("db", cfg.Output.ResultsDB), slog.String("run_id", res.RunID()))
	}
	return nil
}

func resultWriter(format string) (func(*curate.ResultSet) func(io.Writer) error, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "tsv", "":
		return func(res *curate.ResultSet) func(io.Writer) error { return res.WriteTSV }, nil
	case "json":
		return func(res *curate.ResultSet) func(io.Writer) error { return res.WriteJSON }, nil
	default:
		return nil, errors.Errorf("format: unsupported value %q", format)
	}
}

// writeTo runs write against path, or against fallback when path is empty.
func writeTo(path string, fallback io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(fallback)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(file.Close(), "close %s", path)
}

func saveRun(ctx context.Context, path string, res *curate.ResultSet) error {
	store, err := resultstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, res)
}
