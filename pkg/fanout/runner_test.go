package fanout

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"queryfanout/pkg/browser"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/services"
)

// stubProvider counts acquisitions so tests can assert no session is opened
// for unknown services.
type stubProvider struct {
	calls int
	fail  bool
}

func (p *stubProvider) Acquire(ctx context.Context, opts browser.Options) (*browser.Session, error) {
	p.calls++
	if p.fail {
		return nil, fmt.Errorf("no sessions available")
	}
	return &browser.Session{ID: fmt.Sprintf("stub-%d", p.calls), Kind: "stub"}, nil
}

type stubAdapter struct {
	desc     services.Descriptor
	submitOK bool
	outcome  services.PollOutcome
	pollErr  error
	payload  any

	submits  int
	polls    int
	extracts int
}

func (a *stubAdapter) Describe() services.Descriptor { return a.desc }

func (a *stubAdapter) Prepare(ctx context.Context, session *browser.Session) error { return nil }

func (a *stubAdapter) Submit(ctx context.Context, session *browser.Session, query string) bool {
	a.submits++
	return a.submitOK
}

func (a *stubAdapter) Poll(ctx context.Context, page services.Page) (services.PollOutcome, error) {
	a.polls++
	return a.outcome, a.pollErr
}

func (a *stubAdapter) Extract(ctx context.Context, page services.Page) any {
	a.extracts++
	return a.payload
}

func okAdapter(key, name string) *stubAdapter {
	return &stubAdapter{
		desc:     services.Descriptor{Key: key, Name: name, URL: "https://" + key + ".example/"},
		submitOK: true,
		outcome:  services.PollOutcome{Done: true, Ticks: 3, Reason: "complete"},
		payload:  services.PerplexityData{Answer: "Paris", Sources: []services.Link{{Title: "wiki", URL: "https://en.wikipedia.org"}}},
	}
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) ServiceStarted(desc services.Descriptor) {
	o.events = append(o.events, "start:"+desc.Key)
}

func (o *recordingObserver) ServiceFinished(result QueryResult) {
	o.events = append(o.events, fmt.Sprintf("finish:%s:%t", result.Service, result.Success))
}

func (o *recordingObserver) RunFinished(results []QueryResult) {
	o.events = append(o.events, fmt.Sprintf("run:%d", len(results)))
}

func TestRunner(t *testing.T) {
	Convey("Given a fanout runner", t, func() {
		out := &bytes.Buffer{}
		provider := &stubProvider{}
		registry := services.NewRegistry()

		Convey("An unknown service key short-circuits without a session", func() {
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "capital of France", []string{"unknownservice"}, "")

			So(results, ShouldHaveLength, 1)
			So(results[0].Success, ShouldBeFalse)
			So(results[0].Error, ShouldContainSubstring, "Unknown service")
			So(provider.calls, ShouldEqual, 0)
		})

		Convey("A successful query produces a success result with the driver's method tag", func() {
			adapter := okAdapter("perplexity", "Perplexity")
			registry.Register(adapter)
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "capital of France", []string{"perplexity"}, "")

			So(results, ShouldHaveLength, 1)
			So(results[0].Success, ShouldBeTrue)
			So(results[0].ServiceName, ShouldEqual, "Perplexity")
			So(results[0].Method, ShouldEqual, "dom_extraction_via_cdp")
			So(results[0].Timestamp, ShouldNotBeEmpty)
			So(results[0].ExtractedData, ShouldResemble, adapter.payload)
			So(provider.calls, ShouldEqual, 1)
			So(adapter.extracts, ShouldEqual, 1)
		})

		Convey("Empty service keys fan out to every registered service in order", func() {
			first := okAdapter("chatgpt", "ChatGPT")
			second := okAdapter("perplexity", "Perplexity")
			registry.Register(first)
			registry.Register(second)
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "capital of France", nil, "")

			So(results, ShouldHaveLength, 2)
			So(results[0].Service, ShouldEqual, "chatgpt")
			So(results[1].Service, ShouldEqual, "perplexity")
			So(provider.calls, ShouldEqual, 2)
		})

		Convey("A failed submission aborts the attempt before extraction", func() {
			adapter := okAdapter("chatgpt", "ChatGPT")
			adapter.submitOK = false
			registry.Register(adapter)
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "q", []string{"chatgpt"}, "")

			So(results[0].Success, ShouldBeFalse)
			So(results[0].Error, ShouldContainSubstring, "submission")
			So(adapter.extracts, ShouldEqual, 0)
		})

		Convey("A closed session during polling becomes a clarified failure result", func() {
			adapter := okAdapter("chatgpt", "ChatGPT")
			adapter.pollErr = fmt.Errorf("Target page, context or browser has been closed")
			registry.Register(adapter)
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "q", []string{"chatgpt"}, "")

			So(results[0].Success, ShouldBeFalse)
			So(results[0].Error, ShouldContainSubstring, "closed unexpectedly")
			So(adapter.extracts, ShouldEqual, 0)
		})

		Convey("A provider failure becomes a failure result, not a panic", func() {
			provider.fail = true
			registry.Register(okAdapter("chatgpt", "ChatGPT"))
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "q", []string{"chatgpt"}, "")

			So(results[0].Success, ShouldBeFalse)
			So(results[0].Error, ShouldContainSubstring, "no sessions available")
		})

		Convey("One failure never aborts the rest of the run", func() {
			failing := okAdapter("chatgpt", "ChatGPT")
			failing.submitOK = false
			registry.Register(failing)
			registry.Register(okAdapter("perplexity", "Perplexity"))
			runner := NewRunner(provider, registry, WithOutput(out))

			results := runner.Run(context.Background(), "q", nil, "")

			So(results, ShouldHaveLength, 2)
			So(results[0].Success, ShouldBeFalse)
			So(results[1].Success, ShouldBeTrue)
		})

		Convey("Metrics record run, outcomes, and poll ticks", func() {
			collector := metrics.NewFanoutMetrics()
			registry.Register(okAdapter("perplexity", "Perplexity"))
			runner := NewRunner(provider, registry, WithOutput(out), WithMetrics(collector))

			runner.Run(context.Background(), "q", []string{"perplexity", "nope"}, "")

			snapshot := collector.Snapshot()
			So(snapshot["total_runs"], ShouldEqual, int64(1))
			So(snapshot["poll_ticks"], ShouldEqual, int64(3))
			So(snapshot["successes"].(map[string]int64)["perplexity"], ShouldEqual, int64(1))
			So(snapshot["failures"].(map[string]int64)["nope"], ShouldEqual, int64(1))
		})

		Convey("The observer sees start, finish, and run events in order", func() {
			observer := &recordingObserver{}
			registry.Register(okAdapter("chatgpt", "ChatGPT"))
			runner := NewRunner(provider, registry, WithOutput(out), WithObserver(observer))

			runner.Run(context.Background(), "q", []string{"chatgpt", "nope"}, "")

			So(observer.events, ShouldResemble, []string{
				"start:chatgpt",
				"finish:chatgpt:true",
				"finish:nope:false",
				"run:2",
			})
		})

		Convey("The report file is written when requested", func() {
			registry.Register(okAdapter("perplexity", "Perplexity"))
			runner := NewRunner(provider, registry, WithOutput(out))
			path := filepath.Join(t.TempDir(), "results.json")

			runner.Run(context.Background(), "capital of France", []string{"perplexity"}, path)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"service": "perplexity"`)
			So(string(data), ShouldContainSubstring, `"success": true`)
		})

		Convey("The human-readable report carries the banner and tally", func() {
			registry.Register(okAdapter("perplexity", "Perplexity"))
			runner := NewRunner(provider, registry, WithOutput(out))

			runner.Run(context.Background(), "capital of France", []string{"perplexity"}, "")

			So(out.String(), ShouldContainSubstring, "QUERY FANOUT")
			So(out.String(), ShouldContainSubstring, "SUMMARY")
			So(out.String(), ShouldContainSubstring, "Successful: 1")
		})
	})
}
