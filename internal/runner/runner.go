package runner

import (
	"context"
	"log"
	"time"

	"github.com/julianshen/docsmith/internal/output"
	"github.com/julianshen/docsmith/internal/store"
	"github.com/julianshen/docsmith/internal/wiki"
)

// RunFunc matches the signature of wiki.Run.
type RunFunc func(ctx context.Context, cfg wiki.Config, ai wiki.AIChat) (*wiki.Result, error)

// Recorder persists run history. *store.Store satisfies it.
type Recorder interface {
	StartRun(info store.RunInfo) (string, error)
	FinishRun(id string, out store.RunOutcome) error
}

// Runner executes one generation run, records it and builds the report.
type Runner struct {
	run      RunFunc
	recorder Recorder
	now      func() time.Time
}

// New creates a Runner. recorder may be nil to skip run history.
func New(run RunFunc, recorder Recorder) *Runner {
	return &Runner{run: run, recorder: recorder, now: time.Now}
}

// Run executes the pipeline and collects a Report. A failed run is
// reported through Report.Error; history failures only log a warning.
func (r *Runner) Run(ctx context.Context, cfg wiki.Config, ai wiki.AIChat) (*output.Report, *wiki.Result) {
	start := r.now()

	var runID string
	if r.recorder != nil {
		id, err := r.recorder.StartRun(store.RunInfo{
			Project:   cfg.ProjectName,
			Format:    cfg.Format,
			OutputDir: cfg.OutputDir,
			Inputs:    len(cfg.Inputs),
			StartedAt: start,
		})
		if err != nil {
			log.Printf("WARNING: run history unavailable: %v", err)
		}
		runID = id
	}

	res, runErr := r.run(ctx, cfg, ai)
	elapsed := r.now().Sub(start)

	project := cfg.ProjectName
	if res != nil && res.Project != "" {
		project = res.Project
	}
	report := output.NewReport(res, project, cfg.Format, cfg.OutputDir, elapsed, runErr)
	report.RunID = runID

	if runID != "" {
		outcome := store.RunOutcome{Project: project, Err: runErr, FinishedAt: start.Add(elapsed)}
		if res != nil {
			outcome.Pages = len(res.Pages)
			outcome.Warnings = len(res.Warnings)
			outcome.Diagrams = res.Diagrams
			outcome.Strategy = string(res.Navigation.Strategy)
		}
		if err := r.recorder.FinishRun(runID, outcome); err != nil {
			log.Printf("WARNING: recording run %s: %v", runID, err)
		}
	}

	return report, res
}
