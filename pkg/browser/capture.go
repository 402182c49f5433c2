package browser

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/proto"
)

/*
Recorder is the single-owner cell for one session's network capture. The CDP
event goroutine is its only writer; the orchestrator reads it exactly once,
after the poller for the owning service query has returned. The mutex covers
the handoff between those two moments, nothing more.
*/
type Recorder struct {
	mu        sync.Mutex
	matchSub  string
	requestID proto.NetworkRequestID
	url       string
	bodies    []string
}

func (r *Recorder) observe(id proto.NetworkRequestID, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.requestID != "" {
		return true
	}

	r.requestID = id
	r.url = url
	return true
}

// RequestID returns the captured request id, empty if nothing matched yet.
func (r *Recorder) RequestID() proto.NetworkRequestID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requestID
}

// AddBody appends a fetched response body.
func (r *Recorder) AddBody(body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
}

// Bodies returns the accumulated response bodies.
func (r *Recorder) Bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

/*
ArmCapture subscribes to network response events and records the request id
of the first response whose URL contains urlSubstring. It must be called
before the query is submitted; the matching response is produced by the
submission itself.
*/
func (s *Session) ArmCapture(ctx context.Context, urlSubstring string) *Recorder {
	recorder := &Recorder{matchSub: urlSubstring}
	s.recorder = recorder

	if err := (proto.NetworkEnable{}).Call(s.Page); err != nil {
		log.Warn("failed to enable network capture, continuing without it", "session", s.ID, "error", err)
		return recorder
	}

	wait := s.Page.Context(ctx).EachEvent(func(ev *proto.NetworkResponseReceived) bool {
		if ev.Response == nil || !strings.Contains(ev.Response.URL, urlSubstring) {
			return false
		}
		log.Debug("captured streaming response", "session", s.ID, "url", ev.Response.URL)
		return recorder.observe(ev.RequestID, ev.Response.URL)
	})
	go wait()

	return recorder
}

// CaptureHit reports whether the armed capture has produced at least one
// fetched body.
func (s *Session) CaptureHit() bool {
	if s.recorder == nil {
		return false
	}
	return len(s.recorder.Bodies()) > 0
}

/*
CaptureBody fetches the captured response body, once, through the low-level
protocol. It returns false when no recorder was armed, nothing matched, or
the body fetch failed; the caller falls back to DOM-derived data in all of
those cases.
*/
func (s *Session) CaptureBody(ctx context.Context) (string, bool) {
	recorder := s.recorder
	if recorder == nil {
		return "", false
	}

	requestID := recorder.RequestID()
	if requestID == "" {
		log.Debug("network capture saw no matching response", "session", s.ID, "match", recorder.matchSub)
		return "", false
	}

	result, err := proto.NetworkGetResponseBody{RequestID: requestID}.Call(s.Page.Context(ctx))
	if err != nil {
		log.Warn("failed to fetch captured response body", "session", s.ID, "error", err)
		return "", false
	}

	body := result.Body
	if result.Base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			log.Warn("failed to decode captured response body", "session", s.ID, "error", err)
			return "", false
		}
		body = string(decoded)
	}

	recorder.AddBody(body)
	return body, true
}
