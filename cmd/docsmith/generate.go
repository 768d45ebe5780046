// cmd/docsmith/generate.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/julianshen/docsmith/internal/config"
	"github.com/julianshen/docsmith/internal/output"
	"github.com/julianshen/docsmith/internal/runner"
	"github.com/julianshen/docsmith/internal/wiki"
)

type generateOptions struct {
	outputDir    string
	format       string
	project      string
	concurrency  int
	inputsFrom   string
	strict       bool
	reportPath   string
	reportFormat string
	noAI         bool
	grouping     bool
	enrich       bool
	watch        bool
	noHistory    bool
}

func generateCmd() *cobra.Command {
	return newGenerateCmd(&generateOptions{})
}

func newGenerateCmd(opts *generateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [inputs...]",
		Short: "Generate a documentation site from analysis files",
		Long: `Load analysis files (JSON or YAML, or directories of them), merge them
into one project graph and write a documentation site.

Inputs may be given as arguments, read from a list file with --inputs-from,
or piped to stdin one path per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outputDir, "output", "o", "", "output directory (default from config: site)")
	f.StringVar(&opts.format, "format", "", "site format: docusaurus, hugo, raw-md")
	f.StringVar(&opts.project, "project", "", "override the project name")
	f.IntVar(&opts.concurrency, "concurrency", 0, "max parallel file loads and writes")
	f.StringVar(&opts.inputsFrom, "inputs-from", "", "read input paths from a file, one per line")
	f.BoolVar(&opts.strict, "strict", false, "exit with code 2 when the run produced warnings")
	f.StringVar(&opts.reportPath, "report", "", "write a run report to this file (- for stdout)")
	f.StringVar(&opts.reportFormat, "report-format", "markdown", "report format: json, markdown")
	f.BoolVar(&opts.noAI, "no-ai", false, "disable AI grouping and enrichment")
	f.BoolVar(&opts.grouping, "grouping", false, "group navigation by business domain using AI")
	f.BoolVar(&opts.enrich, "enrich", false, "fill missing descriptions using AI")
	f.BoolVar(&opts.watch, "watch", false, "regenerate when analysis files change")
	f.BoolVar(&opts.noHistory, "no-history", false, "do not open the run history and AI cache store")

	return cmd
}

// apply overlays command-line flags onto the loaded config. Boolean feature
// flags only win when set explicitly.
func (o *generateOptions) apply(cfg *config.Config, flags *pflag.FlagSet) {
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.project != "" {
		cfg.Docs.ProjectName = o.project
	}
	if o.concurrency > 0 {
		cfg.Output.Concurrency = o.concurrency
	}
	if flags.Changed("grouping") {
		cfg.Features.DomainGrouping = o.grouping
	}
	if flags.Changed("enrich") {
		cfg.Features.Enrichment = o.enrich
	}
	if o.noAI {
		cfg.Features.DomainGrouping = false
		cfg.Features.Enrichment = false
	}
}

func runGenerate(cmd *cobra.Command, args []string, opts *generateOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return err
	}

	var formatter output.Formatter
	if opts.reportPath != "" {
		formatter, err = output.NewFormatter(opts.reportFormat)
		if err != nil {
			return err
		}
	}

	inputs, err := runner.ResolveInputs(args, opts.inputsFrom, pipedStdin(cmd.InOrStdin()))
	if err != nil {
		return err
	}

	sess := openSession(cfg, sessionOptions{noAI: opts.noAI, noHistory: opts.noHistory})
	defer sess.Close()

	r := runner.New(wiki.Run, sess.recorder())
	stderr := cmd.ErrOrStderr()
	wcfg := wiki.Config{
		Inputs:      inputs,
		OutputDir:   cfg.Output.Dir,
		Format:      cfg.Output.Format,
		ProjectName: cfg.Docs.ProjectName,
		Concurrency: cfg.Output.Concurrency,
		Verbose:     verboseFlag,
		Options:     cfg.WikiOptions(),
		Progress:    stderr,
	}

	generate := func(ctx context.Context) (*output.Report, error) {
		report, _ := r.Run(ctx, wcfg, sess.ai)
		report.AI = sess.aiSummary()
		if formatter != nil {
			if err := writeReport(cmd.OutOrStdout(), opts.reportPath, formatter, report); err != nil {
				return report, err
			}
		}
		fmt.Fprint(stderr, renderSummary(report, isTerminal(stderr)))
		return report, nil
	}

	if opts.watch {
		fmt.Fprintf(stderr, "docsmith: watching %d input(s), press Ctrl-C to stop\n", len(inputs))
		return runner.Watch(cmd.Context(), runner.WatchOptions{
			Paths:   inputs,
			Exclude: cfg.Output.Dir,
		}, func(ctx context.Context) error {
			report, err := generate(ctx)
			if err != nil {
				return err
			}
			if report.Error != "" {
				return errors.New(report.Error)
			}
			return nil
		})
	}

	report, err := generate(cmd.Context())
	if err != nil {
		return err
	}
	if code := runner.ExitCodeFromReport(report, opts.strict); code != runner.ExitOK {
		return &runner.ExitError{Code: code}
	}
	return nil
}

// pipedStdin returns r when it carries piped data. A terminal stdin yields
// nil so input resolution does not block waiting for the user.
func pipedStdin(r io.Reader) io.Reader {
	f, ok := r.(*os.File)
	if !ok {
		return r
	}
	stat, err := f.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return f
}

func writeReport(stdout io.Writer, path string, f output.Formatter, r *output.Report) error {
	data, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
