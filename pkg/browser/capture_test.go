package browser

import (
	"sync"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/tj/assert"
)

func TestRecorderKeepsFirstMatch(t *testing.T) {
	recorder := &Recorder{matchSub: "perplexity_ask"}

	recorder.observe(proto.NetworkRequestID("req-1"), "https://www.perplexity.ai/rest/sse/perplexity_ask")
	recorder.observe(proto.NetworkRequestID("req-2"), "https://www.perplexity.ai/rest/sse/perplexity_ask")

	assert.Equal(t, proto.NetworkRequestID("req-1"), recorder.RequestID())
}

func TestRecorderBodiesAreCopied(t *testing.T) {
	recorder := &Recorder{}
	recorder.AddBody("first")

	bodies := recorder.Bodies()
	bodies[0] = "mutated"

	assert.Equal(t, []string{"first"}, recorder.Bodies())
}

func TestRecorderConcurrentWrites(t *testing.T) {
	recorder := &Recorder{}
	wg := sync.WaitGroup{}

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.observe(proto.NetworkRequestID("req"), "https://example.com/stream")
			recorder.AddBody("chunk")
		}()
	}

	wg.Wait()

	assert.Equal(t, proto.NetworkRequestID("req"), recorder.RequestID())
	assert.Len(t, recorder.Bodies(), 16)
}

func TestCaptureHitWithoutRecorder(t *testing.T) {
	session := &Session{}

	assert.False(t, session.CaptureHit())
}
