package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"

	"github.com/qa-platform/metrics-reporter/metrics"
	"github.com/qa-platform/metrics-reporter/types"
)

// DefaultPushTimeout bounds a single push attempt. There are no retries;
// a publish either lands within the timeout or is reported as failed.
const DefaultPushTimeout = 300 * time.Second

// Outcome describes what Publish did with the payload.
type Outcome string

const (
	// OutcomeNoResults means the record set was empty and no I/O happened.
	OutcomeNoResults Outcome = "no_results"
	// OutcomePushed means the payload was delivered to the remote endpoint.
	OutcomePushed Outcome = "pushed"
	// OutcomeFallback means the record set was written to the local
	// fallback artifact instead of being pushed.
	OutcomeFallback Outcome = "fallback"
	// OutcomeSkipped means a sub-worker declined to write the fallback;
	// its records were already handed off via the partial store.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the push or the fallback write did not succeed.
	OutcomeFailed Outcome = "failed"
)

// Config controls delivery of the encoded payload.
type Config struct {
	// VictoriaURL is the push endpoint. Not validated eagerly; an unset URL
	// surfaces as a failed request when pushing is enabled.
	VictoriaURL string

	// PushEnabled selects remote delivery. When false the coordinator
	// writes the local fallback artifact instead.
	PushEnabled bool

	// WorkerID is non-empty in sub-worker processes, which never write the
	// fallback artifact.
	WorkerID string

	// Platform and Pillar scope the fallback artifact name.
	Platform string
	Pillar   string

	// Dir is where the fallback artifact is written. Defaults to the
	// working directory.
	Dir string

	Timeout time.Duration
	Log     log.Logger
}

// MetricsPublisher delivers an encoded payload to VictoriaMetrics, or
// persists the reconciled record set locally when pushing is disabled.
// Delivery failures are reported, never escalated: metrics delivery must
// not alter the test run's own exit status.
type MetricsPublisher struct {
	cfg    Config
	client *http.Client
}

// NewMetricsPublisher creates a publisher with a bounded-timeout HTTP client.
func NewMetricsPublisher(cfg Config) *MetricsPublisher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultPushTimeout
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &MetricsPublisher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Publish delivers the payload, or falls back per configuration. The
// returned error is informational: callers log it and carry on.
func (p *MetricsPublisher) Publish(ctx context.Context, payload string, records []types.ResultRecord) (Outcome, error) {
	if len(records) == 0 {
		p.cfg.Log.Info("no test results to send")
		return OutcomeNoResults, nil
	}

	if p.cfg.PushEnabled {
		return p.push(ctx, payload)
	}

	if p.cfg.WorkerID != "" {
		// Sub-workers already persisted their records via the partial
		// store; writing the fallback here would duplicate them.
		p.cfg.Log.Info("pushing to Victoria is disabled, worker results already persisted", "worker", p.cfg.WorkerID)
		return OutcomeSkipped, nil
	}

	return p.writeFallback(records)
}

func (p *MetricsPublisher) push(ctx context.Context, payload string) (Outcome, error) {
	tracer := otel.Tracer("metrics-reporter/publisher")
	ctx, span := tracer.Start(ctx, "push_to_victoria")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.VictoriaURL, strings.NewReader(payload))
	if err != nil {
		metrics.RecordErrorDetails("error building push request", err)
		return OutcomeFailed, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.RecordErrorDetails("error pushing to victoria", err)
		return OutcomeFailed, fmt.Errorf("failed to push metrics to %s: %w", p.cfg.VictoriaURL, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	p.cfg.Log.Info("push response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("victoria returned status %d", resp.StatusCode)
		metrics.RecordErrorDetails("error pushing to victoria", err)
		return OutcomeFailed, err
	}

	p.cfg.Log.Info("data pushed successfully to Victoria Metrics")
	return OutcomePushed, nil
}

// writeFallback persists the reconciled record set as a local audit trail
// when remote delivery is disabled.
func (p *MetricsPublisher) writeFallback(records []types.ResultRecord) (Outcome, error) {
	filename := fmt.Sprintf("%s_pytest_worker_%s.json", p.cfg.Platform, p.cfg.Pillar)
	path, err := filepath.Abs(filepath.Join(p.cfg.Dir, filename))
	if err != nil {
		path = filepath.Join(p.cfg.Dir, filename)
	}

	wd, _ := os.Getwd()
	p.cfg.Log.Info("pushing to Victoria is disabled, saving results locally",
		"path", path,
		"cwd", wd,
		"records", len(records))

	data, err := json.Marshal(records)
	if err != nil {
		metrics.RecordErrorDetails("error serializing fallback results", err)
		return OutcomeFailed, fmt.Errorf("failed to serialize fallback results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		metrics.RecordErrorDetails("error writing fallback results", err)
		return OutcomeFailed, fmt.Errorf("failed to write fallback results to %s: %w", path, err)
	}

	p.cfg.Log.Info("fallback results written", "path", path)
	return OutcomeFallback, nil
}
