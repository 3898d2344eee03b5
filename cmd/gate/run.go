package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qa-gate/internal/config"
	"github.com/stellarlinkco/qa-gate/internal/gate"
	"github.com/stellarlinkco/qa-gate/internal/report"
	"github.com/stellarlinkco/qa-gate/internal/runner"
	"github.com/stellarlinkco/qa-gate/internal/store"
	"github.com/stellarlinkco/qa-gate/internal/subject"
	"github.com/stellarlinkco/qa-gate/internal/suite"
)

type runOptions struct {
	suitePath   string
	subjectURL  string
	concurrency int
	threshold   float64
	timeout     time.Duration
	retries     int
	outputPath  string
	format      string
	ci          bool
	noStore     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a suite against the subject and decide the gate",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.suitePath, "suite", "", "path to the suite descriptor (required)")
	cmd.Flags().StringVar(&opts.subjectURL, "subject-url", "", "subject base URL (overrides config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", -1, "max in-flight subject calls (overrides config)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", -1, "global minimum overall pass rate (overrides config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-request subject timeout (overrides config)")
	cmd.Flags().IntVar(&opts.retries, "retries", -1, "retries per subject call (overrides config)")
	cmd.Flags().StringVar(&opts.outputPath, "out", "", "report artifact path (overrides config)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json|github")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "force CI mode (GitHub outputs and job summary)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip persisting the run to history")
	_ = cmd.MarkFlagRequired("suite")

	return cmd
}

func runGate(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	cfg := st.cfg

	format, err := parseFormat(opts.format)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	subjectURL := strings.TrimSpace(opts.subjectURL)
	if subjectURL == "" {
		subjectURL = strings.TrimSpace(cfg.Subject.URL)
	}
	if subjectURL == "" {
		return fmt.Errorf("run: no subject URL (set --subject-url, SUBJECT_URL, or subject.url)")
	}

	globalThreshold := cfg.Evaluation.GlobalThreshold
	if opts.threshold >= 0 {
		globalThreshold = opts.threshold
	}
	if globalThreshold < 0 || globalThreshold > 1 {
		return fmt.Errorf("run: threshold must be between 0 and 1 (got %v)", globalThreshold)
	}

	concurrency := cfg.Evaluation.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	outputPath := strings.TrimSpace(opts.outputPath)
	if outputPath == "" {
		outputPath = strings.TrimSpace(cfg.Evaluation.OutputPath)
	}
	if outputPath == "" {
		outputPath = "data/gate-report.json"
	}

	s, err := suite.Load(opts.suitePath)
	if err != nil {
		return err
	}

	clientOpts := []subject.Option{}
	if opts.timeout > 0 {
		clientOpts = append(clientOpts, subject.WithTimeout(opts.timeout))
	} else if cfg.Subject.Timeout > 0 {
		clientOpts = append(clientOpts, subject.WithTimeout(cfg.Subject.Timeout))
	}
	if opts.retries >= 0 {
		clientOpts = append(clientOpts, subject.WithRetry(opts.retries))
	} else if cfg.Subject.Retries > 0 {
		clientOpts = append(clientOpts, subject.WithRetry(cfg.Subject.Retries))
	}
	client := subject.NewClient(subjectURL, clientOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Nothing is evaluated until the subject is ready; an unreachable
	// subject aborts the whole run with no report to gate on.
	if err := client.WaitReady(ctx, cfg.Subject.ReadinessAttempts, cfg.Subject.ReadinessInterval); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	startedAt := time.Now().UTC()

	r := runner.NewRunner(client, runner.Config{
		Concurrency: concurrency,
		Grace:       cfg.Evaluation.Grace,
	})
	results, err := r.RunSuite(ctx, s)
	if err != nil {
		return err
	}

	rep, err := gate.Decide(s, results, cfg.Evaluation.DefaultThreshold, globalThreshold)
	if err != nil {
		return err
	}

	finishedAt := time.Now().UTC()

	if err := printReport(cmd.OutOrStdout(), rep, format); err != nil {
		return err
	}

	// The artifact is written even when the gate fails so the pipeline can
	// inspect failure detail.
	if err := report.WriteFile(outputPath, rep); err != nil {
		return err
	}

	if !opts.noStore {
		if err := saveRun(cmd.Context(), cfg, rep, startedAt, finishedAt); err != nil {
			fmt.Fprintf(stderrWriter, "run: save history: %v\n", err)
		}
	}

	if resolveCIMode(opts) {
		writeCIArtifacts(rep)
	}

	if !rep.Passed() {
		return errGateFailed
	}
	return nil
}

func saveRun(ctx context.Context, cfg *config.Config, rep *gate.Report, startedAt, finishedAt time.Time) error {
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &store.RunRecord{
		ID:              newRunID(),
		Suite:           rep.Suite,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		Gate:            string(rep.Decision),
		OverallPassRate: rep.OverallPassRate,
		GlobalThreshold: rep.GlobalThreshold,
		Categories:      make([]store.CategoryRecord, 0, len(rep.Categories)),
	}
	for _, cs := range rep.Categories {
		rec.Categories = append(rec.Categories, store.CategoryRecord{
			Name:           cs.Name,
			Threshold:      cs.Threshold,
			Passed:         cs.Passed,
			Failed:         cs.Failed,
			Errored:        cs.Errored,
			Total:          cs.Total,
			PassRate:       cs.PassRate,
			MeetsThreshold: cs.MeetsThreshold,
			Empty:          cs.Empty,
		})
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return st.SaveRun(ctx, rec)
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + hex.EncodeToString(b)
}
