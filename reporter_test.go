package reporter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/log"

	"github.com/qa-platform/metrics-reporter/publisher"
	"github.com/qa-platform/metrics-reporter/types"
)

func writePartialStore(t *testing.T, dir, name string, records []types.ResultRecord) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func testConfig(dir string) *Config {
	return &Config{
		RunID:           "run-7",
		Platform:        "linux",
		Pillar:          "core",
		MultipleReport:  true,
		DeleteTempFiles: true,
		ResultsDir:      dir,
		Log:             log.Root(),
	}
}

func TestReporter_MergesAndPushes(t *testing.T) {
	dir := t.TempDir()
	writePartialStore(t, dir, "core_pytest_worker_gw0.json", []types.ResultRecord{
		{RunID: "run-7", CaseID: "C1", Title: "t1", SuiteTitle: "s", Status: types.StatusFailed, TimeSpentMS: 40, Error: "boom"},
	})
	writePartialStore(t, dir, "core_pytest_worker_gw1.json", []types.ResultRecord{
		{RunID: "run-7", CaseID: "C1", Title: "t1", SuiteTitle: "s", Status: types.StatusPassed, TimeSpentMS: 90},
		{RunID: "run-7", CaseID: "C2", Title: "t2", SuiteTitle: "s", Status: types.StatusFailed, TimeSpentMS: 50, Error: "AssertionError"},
	})

	var gotPayload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPayload = string(body)
	}))
	defer srv.Close()

	cfg := testConfig(dir)
	cfg.VictoriaURL = srv.URL
	cfg.PushToVictoria = true

	rep, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.NoError(t, rep.report())

	// C1 reconciles to passed, C2 stays failed: 2+2+1 lines.
	lines := strings.Split(gotPayload, "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, gotPayload, `status="passed"`)
	assert.Contains(t, gotPayload, `error_message="AssertionError"`)
	assert.Equal(t, publisher.OutcomePushed, rep.outcome)
	require.Len(t, rep.result, 2)

	// Partial stores are deleted after the merge.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReporter_FallbackWhenPushDisabled(t *testing.T) {
	dir := t.TempDir()
	writePartialStore(t, dir, "core_pytest_worker_gw0.json", []types.ResultRecord{
		{RunID: "run-7", CaseID: "C1", Status: types.StatusPassed, TimeSpentMS: 10},
	})

	cfg := testConfig(dir)

	rep, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.NoError(t, rep.report())

	assert.Equal(t, publisher.OutcomeFallback, rep.outcome)
	data, err := os.ReadFile(filepath.Join(dir, "linux_pytest_worker_core.json"))
	require.NoError(t, err)

	var records []types.ResultRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "C1", records[0].CaseID)
}

func TestReporter_NoResults(t *testing.T) {
	cfg := testConfig(t.TempDir())

	rep, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.NoError(t, rep.report())

	assert.Equal(t, publisher.OutcomeNoResults, rep.outcome)
	assert.Empty(t, rep.result)
}

func TestReporter_MalformedStoreIsRuntimeError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core_pytest_worker_gw0.json"), []byte("{broken"), 0o644))

	cfg := testConfig(dir)

	rep, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	err = rep.report()
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
}

func TestReporter_PushFailureDoesNotFailTheRun(t *testing.T) {
	dir := t.TempDir()
	writePartialStore(t, dir, "core_pytest_worker_gw0.json", []types.ResultRecord{
		{RunID: "run-7", CaseID: "C1", Status: types.StatusPassed, TimeSpentMS: 10},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(dir)
	cfg.VictoriaURL = srv.URL
	cfg.PushToVictoria = true

	rep, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	// The delivery failure is reported, not returned.
	require.NoError(t, rep.report())
	assert.Equal(t, publisher.OutcomeFailed, rep.outcome)
}

func TestReporter_LifecycleStartStop(t *testing.T) {
	cfg := testConfig(t.TempDir())

	shutdown := make(chan struct{})
	rep, err := New(context.Background(), cfg, "test", func(error) { close(shutdown) })
	require.NoError(t, err)

	require.NoError(t, rep.Start(context.Background()))
	<-shutdown

	assert.False(t, rep.Stopped())
	require.NoError(t, rep.Stop(context.Background()))
	assert.True(t, rep.Stopped())
}
