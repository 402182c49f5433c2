package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

/*
Session owns one live automation page and its teardown chain. Exactly one
session is in flight per service query; it is never shared across services
and must be released on every exit path. Each closer runs independently so a
failure in one never prevents the rest from running.
*/
type Session struct {
	ID        string
	Kind      string
	Inspector string
	Page      *rod.Page
	Browser   *rod.Browser

	recorder *Recorder
	closers  []func() error
	once     sync.Once
}

// AddCloser appends a teardown step. Steps run in reverse order on Release,
// so the page added last closes before the browser it lives in.
func (s *Session) AddCloser(name string, fn func() error) {
	s.closers = append(s.closers, func() error {
		if err := fn(); err != nil {
			log.Warn("session teardown step failed", "session", s.ID, "step", name, "error", err)
			return err
		}
		return nil
	})
}

// Release tears the session down. Safe to call more than once; only the
// first call does work.
func (s *Session) Release() {
	s.once.Do(func() {
		log.Debug("releasing session", "session", s.ID, "kind", s.Kind)
		for i := len(s.closers) - 1; i >= 0; i-- {
			_ = s.closers[i]()
		}
	})
}

/*
Eval runs a JavaScript function expression on the page and returns its value.
The context bounds the round trip, so a wedged page cannot stall a poller
tick indefinitely.
*/
func (s *Session) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := s.Page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// HTML returns the page's current outer HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if s.Page == nil {
		return "", errors.New("session has no page attached")
	}
	return s.Page.Context(ctx).HTML()
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.Page.Context(ctx).Screenshot(true, nil)
}

/*
Navigate performs a best-effort navigation: failures are logged and
swallowed because challenge interstitials routinely break the load event
while still leaving a usable page behind.
*/
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) {
	page := s.Page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		log.Warn("initial navigation failed, continuing anyway", "session", s.ID, "url", url, "error", err)
		return
	}

	if err := page.WaitLoad(); err != nil {
		log.Warn("page load wait failed, continuing anyway", "session", s.ID, "url", url, "error", err)
	}
}
