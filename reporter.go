package reporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/qa-platform/metrics-reporter/encoder"
	"github.com/qa-platform/metrics-reporter/merger"
	"github.com/qa-platform/metrics-reporter/metrics"
	"github.com/qa-platform/metrics-reporter/publisher"
	"github.com/qa-platform/metrics-reporter/store"
	"github.com/qa-platform/metrics-reporter/types"
)

// reporter implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &reporter{}

// reporter is the coordinator side of the pipeline: it merges the partial
// results left behind by the workers, reconciles duplicates, encodes the
// set and delivers it.
type reporter struct {
	ctx      context.Context
	config   *Config
	version  string
	reportID string // correlates logs and internal metrics for one pipeline run

	store     *store.PartialResultStore
	merger    *merger.ResultMerger
	encoder   *encoder.MetricsEncoder
	publisher *publisher.MetricsPublisher

	result  []types.ResultRecord
	outcome publisher.Outcome

	running atomic.Bool
	done    chan struct{}

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*reporter, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating reporter with config",
		"resultsDir", config.ResultsDir,
		"pushToVictoria", config.PushToVictoria,
		"pillar", config.Pillar,
		"platform", config.Platform,
		"worker", config.WorkerID)

	resultStore := store.NewPartialResultStore(store.Config{
		Dir:             config.ResultsDir,
		Pillar:          config.Pillar,
		MultipleReport:  config.MultipleReport,
		DeleteAfterLoad: config.DeleteTempFiles,
		LegacyDiscovery: config.LegacyDiscovery,
		Log:             config.Log,
	})

	pub := publisher.NewMetricsPublisher(publisher.Config{
		VictoriaURL: config.VictoriaURL,
		PushEnabled: config.PushToVictoria,
		WorkerID:    config.WorkerID,
		Platform:    config.Platform,
		Pillar:      config.Pillar,
		Dir:         config.ResultsDir,
		Timeout:     config.PushTimeout,
		Log:         config.Log,
	})

	return &reporter{
		ctx:              ctx,
		config:           config,
		version:          version,
		reportID:         uuid.New().String(),
		store:            resultStore,
		merger:           merger.NewResultMerger(),
		encoder:          encoder.NewMetricsEncoder(),
		publisher:        pub,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the merge-and-publish pipeline once and triggers shutdown.
// Start implements the cliapp.Lifecycle interface.
func (r *reporter) Start(ctx context.Context) error {
	r.ctx = ctx
	r.done = make(chan struct{})
	r.running.Store(true)

	r.config.Log.Info("Starting metrics-reporter", "version", r.version, "report_id", r.reportID)

	err := r.report()
	if err != nil {
		r.config.Log.Error("Runtime error consolidating results", "error", err)
		return err
	}

	go func() {
		r.shutdownCallback(nil)
	}()
	return nil
}

// report consolidates the partial results and delivers them.
func (r *reporter) report() error {
	start := time.Now()

	records, err := r.store.DiscoverAndLoad()
	if err != nil {
		// A malformed or unreadable partial store is a broken invariant,
		// not an expected environmental condition.
		return NewRuntimeError(err)
	}

	reconciled := r.merger.Reconcile(records)
	metrics.RecordMerge(r.config.RunID, len(records), len(reconciled))
	r.config.Log.Info("Merged partial results",
		"loaded", len(records),
		"reconciled", len(reconciled),
		"run_id", r.config.RunID)

	now := time.Now()
	payload := r.encoder.Encode(reconciled, now.Unix(), now.UnixMilli())

	outcome, pubErr := r.publisher.Publish(r.ctx, payload, reconciled)
	if pubErr != nil {
		// Reported, never escalated: the run's exit status does not depend
		// on metrics delivery.
		r.config.Log.Error("Failed to deliver metrics", "outcome", outcome, "error", pubErr)
	}
	metrics.RecordPush(r.config.RunID, string(outcome))
	metrics.RecordReportDuration(r.config.RunID, time.Since(start))

	r.result = reconciled
	r.outcome = outcome

	r.printResultsTable(len(payload))
	r.config.Log.Info("Report completed",
		"report_id", r.reportID,
		"outcome", outcome,
		"duration", time.Since(start))
	return nil
}

// Stop stops the reporter service.
// Stop implements the cliapp.Lifecycle interface.
func (r *reporter) Stop(ctx context.Context) error {
	r.config.Log.Info("Stopping metrics-reporter")

	if !r.running.Load() {
		r.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	r.running.Store(false)
	close(r.done)

	r.config.Log.Info("metrics-reporter stopped successfully")
	return nil
}

// Stopped returns true if the reporter service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (r *reporter) Stopped() bool {
	return !r.running.Load()
}

// printResultsTable prints the reconciled result set to the console.
func (r *reporter) printResultsTable(payloadBytes int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Test Metrics Report (%s)", r.config.RunID))

	t.AppendHeader(table.Row{
		"Case ID", "Suite", "Title", "Status", "Duration",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Case ID", WidthMax: 30, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Suite", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Title", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	var passed, failed, other int
	for _, record := range r.result {
		switch record.Status {
		case types.StatusPassed:
			passed++
		case types.StatusFailed:
			failed++
		default:
			other++
		}
		t.AppendRow(table.Row{
			record.CaseID,
			record.SuiteTitle,
			record.Title,
			getResultString(record.Status),
			formatDuration(record.TimeSpentMS),
		})
	}

	t.AppendFooter(table.Row{
		"Total", len(r.result),
		fmt.Sprintf("%d passed / %d failed / %d other", passed, failed, other),
		string(r.outcome),
		fmt.Sprintf("%d B", payloadBytes),
	})
	t.Render()
}
