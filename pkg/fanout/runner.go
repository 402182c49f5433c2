package fanout

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"queryfanout/pkg/browser"
	"queryfanout/pkg/errors"
	"queryfanout/pkg/logging"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/services"
)

/*
Driver performs the submission step of a per-service query. The direct
driver drives the page primitives itself; the agent driver hands the same
step to a computer-use model. Polling and extraction always run the direct
implementations, so the driver only owns submission and the method tag
stamped onto results.
*/
type Driver interface {
	Method() string
	Submit(ctx context.Context, adapter services.Adapter, session *browser.Session, query string) bool
}

// DirectDriver submits through the adapter's own page automation.
type DirectDriver struct{}

func (DirectDriver) Method() string {
	return "dom_extraction_via_cdp"
}

func (DirectDriver) Submit(ctx context.Context, adapter services.Adapter, session *browser.Session, query string) bool {
	return adapter.Submit(ctx, session, query)
}

// Observer receives run lifecycle notifications. The TUI, the notifier, and
// the artifact archive all hang off this.
type Observer interface {
	ServiceStarted(desc services.Descriptor)
	ServiceFinished(result QueryResult)
	RunFinished(results []QueryResult)
}

// MultiObserver fans lifecycle events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) ServiceStarted(desc services.Descriptor) {
	for _, observer := range m {
		observer.ServiceStarted(desc)
	}
}

func (m MultiObserver) ServiceFinished(result QueryResult) {
	for _, observer := range m {
		observer.ServiceFinished(result)
	}
}

func (m MultiObserver) RunFinished(results []QueryResult) {
	for _, observer := range m {
		observer.RunFinished(results)
	}
}

/*
Runner fans one query out across the configured services, strictly
sequentially. Every per-service failure becomes a failure-flagged
QueryResult; nothing aborts the run, and the process exit status never
reflects per-service outcomes.
*/
type Runner struct {
	provider   browser.Provider
	registry   *services.Registry
	driver     Driver
	metrics    *metrics.FanoutMetrics
	transcript *logging.Transcript
	observer   Observer
	out        io.Writer
	width      int
	height     int
}

type RunnerOption func(*Runner)

// WithDriver swaps the submission driver.
func WithDriver(driver Driver) RunnerOption {
	return func(r *Runner) {
		r.driver = driver
	}
}

// WithMetrics records run counters into the given collector.
func WithMetrics(m *metrics.FanoutMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTranscript mirrors run steps into a transcript file.
func WithTranscript(tr *logging.Transcript) RunnerOption {
	return func(r *Runner) {
		r.transcript = tr
	}
}

// WithObserver attaches a run lifecycle observer.
func WithObserver(observer Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithViewport overrides the session viewport.
func WithViewport(width, height int) RunnerOption {
	return func(r *Runner) {
		r.width = width
		r.height = height
	}
}

// WithOutput redirects the human-readable report, which tests capture and
// the TUI mode discards.
func WithOutput(out io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = out
	}
}

func NewRunner(provider browser.Provider, registry *services.Registry, options ...RunnerOption) *Runner {
	runner := &Runner{
		provider: provider,
		registry: registry,
		driver:   DirectDriver{},
		out:      os.Stdout,
		width:    browser.DefaultWidth,
		height:   browser.DefaultHeight,
	}

	for _, option := range options {
		option(runner)
	}

	return runner
}

/*
Run executes the fanout: every requested service in order, one fresh
session each. Empty serviceKeys means all registered services. When
outputPath is set the full result list is also written there as indented
JSON.
*/
func (r *Runner) Run(ctx context.Context, query string, serviceKeys []string, outputPath string) []QueryResult {
	started := time.Now()

	if len(serviceKeys) == 0 {
		serviceKeys = r.registry.Keys()
	}

	fmt.Fprintln(r.out, RenderBanner(query, serviceKeys))
	r.transcript.Record("fanout start: query=%q services=%v", query, serviceKeys)

	results := make([]QueryResult, 0, len(serviceKeys))

	for _, key := range serviceKeys {
		result := r.queryService(ctx, key, query)
		results = append(results, result)

		if r.metrics != nil {
			r.metrics.RecordOutcome(key, result.Success)
		}

		fmt.Fprintln(r.out, RenderResult(result))
	}

	fmt.Fprintln(r.out, RenderTally(results))

	if r.metrics != nil {
		r.metrics.RecordRun(len(serviceKeys), time.Since(started))
	}

	if outputPath != "" {
		if err := WriteReport(outputPath, results); err != nil {
			log.Error("failed to save results", "path", outputPath, "error", err)
		} else {
			log.Info("results saved", "path", outputPath)
		}
	}

	if r.observer != nil {
		r.observer.RunFinished(results)
	}

	r.transcript.Record("fanout done: %d services in %s", len(serviceKeys), time.Since(started))
	return results
}

/*
queryService runs one service query end to end: acquire, prepare, submit,
poll, extract, release. The session is released on every exit path before
the next service's acquire. Unknown keys short-circuit before any session
is opened.
*/
func (r *Runner) queryService(ctx context.Context, key, query string) (result QueryResult) {
	result = newResult(key, query)

	defer func() {
		if r.observer != nil {
			r.observer.ServiceFinished(result)
		}
	}()

	adapter, ok := r.registry.Lookup(key)
	if !ok {
		log.Error("unknown service requested", "service", key)
		result.Error = (&errors.UnknownServiceError{Key: key}).Error()
		return result
	}

	desc := adapter.Describe()
	result.ServiceName = desc.Name
	result.Method = r.driver.Method()

	if r.observer != nil {
		r.observer.ServiceStarted(desc)
	}

	log.Info("querying service", "service", desc.Name, "query", query)
	r.transcript.Record("querying %s", desc.Name)

	session, err := r.provider.Acquire(ctx, browser.Options{
		Width:      r.width,
		Height:     r.height,
		InitialURL: desc.URL,
	})
	if err != nil {
		result.Error = describeFailure("session acquisition", err)
		return result
	}
	defer session.Release()

	if err := adapter.Prepare(ctx, session); err != nil {
		log.Warn("preparation failed, continuing anyway", "service", key, "error", err)
	}

	if !r.driver.Submit(ctx, adapter, session, query) {
		result.Error = "query submission failed"
		return result
	}

	outcome, err := adapter.Poll(ctx, session)
	if err != nil {
		result.Error = describeFailure("response wait", err)
		return result
	}

	if r.metrics != nil {
		r.metrics.RecordPoll(outcome.Ticks, outcome.TimedOut)
	}

	result.ExtractedData = adapter.Extract(ctx, session)

	if html, err := session.HTML(ctx); err == nil {
		result.RawHTML = html
	} else {
		log.Warn("page snapshot failed", "service", key, "error", err)
	}

	if r.metrics != nil && session.CaptureHit() {
		r.metrics.RecordCaptureHit()
	}

	result.Success = true
	return result
}

// describeFailure clarifies closed-session errors, which otherwise surface
// as an opaque transport message.
func describeFailure(op string, err error) string {
	if errors.IsSessionClosed(err) {
		return fmt.Sprintf("browser session was closed unexpectedly during %s; try a simpler query or a longer session timeout", op)
	}
	return err.Error()
}
