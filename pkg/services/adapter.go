package services

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"queryfanout/pkg/browser"
	"queryfanout/pkg/errors"
)

/*
Page is the read-only surface pollers and extractors run against. The live
session implements it over CDP; tests implement it with scripted fixtures.
CaptureBody exposes the one-shot network capture, returning false when no
capture was armed or nothing matched.
*/
type Page interface {
	Eval(ctx context.Context, js string) (gson.JSON, error)
	HTML(ctx context.Context) (string, error)
	CaptureBody(ctx context.Context) (string, bool)
}

/*
Adapter is the polymorphic per-service automation surface. Prepare runs
before submission (network capture arming, interstitial cleanup), Submit
fills and sends the query, Poll waits for the heuristic completion signal,
and Extract scrapes the rendered result. One adapter instance serves the
whole process; per-query state lives on the session, never on the adapter.
*/
type Adapter interface {
	Describe() Descriptor
	Prepare(ctx context.Context, session *browser.Session) error
	Submit(ctx context.Context, session *browser.Session, query string) bool
	Poll(ctx context.Context, page Page) (PollOutcome, error)
	Extract(ctx context.Context, page Page) any
}

// PollOutcome reports how a completion poll ended. TimedOut is advisory:
// callers proceed to extraction either way.
type PollOutcome struct {
	Done     bool
	TimedOut bool
	Ticks    int
	Reason   string
}

// Link is one extracted source reference.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

/*
runPoll drives the POLLING state: evaluate step, transition to DONE when it
reports completion, to TIMED_OUT at the tick cap. Evaluation errors are
transient and keep the loop alive, except the closed-browser signature,
which aborts the poll as a hard failure.
*/
func runPoll(ctx context.Context, service string, tick time.Duration, maxTicks int, step func(context.Context) (bool, string, error)) (PollOutcome, error) {
	for i := 0; i < maxTicks; i++ {
		done, reason, err := step(ctx)

		if err != nil {
			if errors.IsSessionClosed(err) {
				return PollOutcome{Ticks: i + 1}, &errors.SessionClosedError{Op: "poll", Err: err}
			}
			log.Debug("poll tick failed, continuing", "service", service, "tick", i, "error", err)
		}

		if done {
			log.Info("response complete", "service", service, "ticks", i+1, "reason", reason)
			return PollOutcome{Done: true, Ticks: i + 1, Reason: reason}, nil
		}

		if i%5 == 0 {
			log.Debug("waiting for response", "service", service, "elapsed", i)
		}

		time.Sleep(tick)
	}

	log.Warn("response timeout, proceeding anyway", "service", service, "ticks", maxTicks)
	return PollOutcome{TimedOut: true, Ticks: maxTicks, Reason: "timeout"}, nil
}

/*
findFirst resolves the first selector candidate that yields a visible
element within the per-candidate timeout. When the whole list misses it
clicks the page body once and retries, which dismisses focus-stealing
overlays on both target sites.
*/
func findFirst(ctx context.Context, session *browser.Session, selectors []string, perCandidate time.Duration) *rod.Element {
	attempt := func() *rod.Element {
		for _, selector := range selectors {
			element, err := session.Page.Context(ctx).Timeout(perCandidate).Element(selector)
			if err != nil {
				continue
			}

			if visible, err := element.Visible(); err != nil || !visible {
				continue
			}

			log.Debug("resolved element", "session", session.ID, "selector", selector)
			return element
		}
		return nil
	}

	if element := attempt(); element != nil {
		return element
	}

	if body, err := session.Page.Context(ctx).Timeout(perCandidate).Element("body"); err == nil {
		_ = body.Click(proto.InputMouseButtonLeft, 1)
	}

	return attempt()
}

// clickFirst clicks the first visible match from selectors. Best effort;
// returns whether anything was clicked.
func clickFirst(ctx context.Context, session *browser.Session, selectors []string, perCandidate time.Duration) bool {
	element := findFirst(ctx, session, selectors, perCandidate)
	if element == nil {
		return false
	}
	return element.Click(proto.InputMouseButtonLeft, 1) == nil
}

// dedupeStrings removes duplicates while preserving first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}

	return out
}

// dedupeLinks removes URL duplicates while preserving first-seen order.
func dedupeLinks(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := make([]Link, 0, len(links))

	for _, link := range links {
		if _, ok := seen[link.URL]; ok {
			continue
		}
		seen[link.URL] = struct{}{}
		out = append(out, link)
	}

	return out
}

// excludeDomains drops links whose URL contains any of the given domain
// substrings, which filters the service's own navigation out of the source
// list.
func excludeDomains(links []Link, domains []string) []Link {
	out := make([]Link, 0, len(links))

	for _, link := range links {
		excluded := false
		for _, domain := range domains {
			if strings.Contains(link.URL, domain) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, link)
		}
	}

	return out
}

// linkTitleLimit bounds the title carried for one extracted link.
const linkTitleLimit = 100

// linkTitle cleans and bounds a link title, substituting fallback when the
// anchor had no usable text.
func linkTitle(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = fallback
	}
	return truncateText(title, linkTitleLimit)
}

// capStrings bounds a list to at most n entries.
func capStrings(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// capLinks bounds a list to at most n entries.
func capLinks(links []Link, n int) []Link {
	if len(links) > n {
		return links[:n]
	}
	return links
}

// truncateText bounds text to at most n runes without splitting a
// character.
func truncateText(text string, n int) string {
	if len(text) <= n {
		return text
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
