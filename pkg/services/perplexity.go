package services

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"queryfanout/pkg/browser"
)

/*
PerplexityConfig holds the Perplexity adapter's selector lists and tuning
constants. The completion heuristics triangulate three weak signals, so the
thresholds here are the first thing to revisit when the site redesigns.
*/
type PerplexityConfig struct {
	InputSelectors      []string
	SubmitSelectors     []string
	DismissSelectors    []string
	AnswerSelectors     []string
	GeneratingSelectors []string
	RelatedSelectors    []string
	ExcludedDomains     []string

	SelectorTimeout time.Duration
	Tick            time.Duration

	// MaxTicks bounds a plain poll; CaptureMaxTicks applies when a network
	// capture is armed and the stream needs longer to finish.
	MaxTicks        int
	CaptureMaxTicks int

	// MinStableLen is the floor below which content-length stability does
	// not count; DoneLen and RelatedLen gate the two completion arms.
	MinStableLen int
	DoneLen      int
	RelatedLen   int
	StableTicks  int

	SettleStable  time.Duration
	SettleRelated time.Duration

	// CaptureSubstring identifies the streaming endpoint whose response
	// body carries the authoritative related_queries array. Empty disables
	// the capture path.
	CaptureSubstring string

	MinAnswerLen    int
	AnswerLimit     int
	SourceLimit     int
	RelatedLimit    int
	RelatedMinLen   int
	HeuristicMinLen int
	HeuristicMaxLen int
}

// DefaultPerplexityConfig returns the production tuning.
func DefaultPerplexityConfig() PerplexityConfig {
	return PerplexityConfig{
		InputSelectors: []string{
			`textarea[placeholder*="Ask"]`,
			`textarea[autofocus]`,
			`div[contenteditable="true"]`,
			"textarea",
		},
		SubmitSelectors: []string{
			`button[aria-label="Submit"]`,
			`button[data-testid="submit-button"]`,
			`button[type="submit"]`,
		},
		DismissSelectors: []string{
			`button[aria-label="Close"]`,
			`[data-testid="close-modal"]`,
		},
		AnswerSelectors: []string{
			`[class*="Answer"]`,
			`[class*="answer"]`,
			"article",
			`main [class*="prose"]`,
		},
		GeneratingSelectors: []string{
			`[class*="animate-spin"]`,
			`[class*="generating"]`,
			`[data-testid*="loading"]`,
		},
		RelatedSelectors: []string{
			`[class*="related"]`,
			`[data-testid*="related"]`,
		},
		ExcludedDomains:  []string{"perplexity.ai", "google."},
		SelectorTimeout:  3 * time.Second,
		Tick:             time.Second,
		MaxTicks:         60,
		CaptureMaxTicks:  90,
		MinStableLen:     100,
		DoneLen:          500,
		RelatedLen:       200,
		StableTicks:      3,
		SettleStable:     3 * time.Second,
		SettleRelated:    2 * time.Second,
		CaptureSubstring: "perplexity_ask",
		MinAnswerLen:     50,
		AnswerLimit:      3000,
		SourceLimit:      15,
		RelatedLimit:     10,
		RelatedMinLen:    5,
		HeuristicMinLen:  10,
		HeuristicMaxLen:  200,
	}
}

// PerplexityData is the extraction payload for the search-answer service.
type PerplexityData struct {
	Answer         string   `json:"answer"`
	Sources        []Link   `json:"sources"`
	RelatedQueries []string `json:"related_queries"`
	Error          string   `json:"error,omitempty"`
}

// Perplexity is the search-answer adapter.
type Perplexity struct {
	config PerplexityConfig
}

func NewPerplexity(config PerplexityConfig) *Perplexity {
	return &Perplexity{config: config}
}

func (p *Perplexity) Describe() Descriptor {
	return Descriptor{Key: "perplexity", Name: "Perplexity", URL: "https://www.perplexity.ai/"}
}

/*
Prepare arms the network capture for the streaming answer endpoint and
clears the signup interstitial when one is covering the page. Both are best
effort; the DOM path still works without either.
*/
func (p *Perplexity) Prepare(ctx context.Context, session *browser.Session) error {
	if p.config.CaptureSubstring != "" {
		session.ArmCapture(ctx, p.config.CaptureSubstring)
	}

	if clickFirst(ctx, session, p.config.DismissSelectors, p.config.SelectorTimeout) {
		log.Debug("dismissed signup interstitial", "service", "perplexity")
	}

	return nil
}

// Submit fills the query and sends it, preferring the submit control over a
// synthesized Enter when one resolves.
func (p *Perplexity) Submit(ctx context.Context, session *browser.Session, query string) bool {
	field := findFirst(ctx, session, p.config.InputSelectors, p.config.SelectorTimeout)
	if field == nil {
		log.Error("query input not found", "service", "perplexity", "session", session.ID)
		return false
	}

	if err := field.Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.Error("failed to focus query input", "service", "perplexity", "error", err)
		return false
	}

	if err := field.Input(query); err != nil {
		log.Error("failed to fill query", "service", "perplexity", "error", err)
		return false
	}

	if clickFirst(ctx, session, p.config.SubmitSelectors, p.config.SelectorTimeout) {
		log.Info("query submitted", "service", "perplexity", "via", "button")
		return true
	}

	if err := session.Page.Context(ctx).Keyboard.Press(input.Enter); err != nil {
		log.Error("failed to submit query", "service", "perplexity", "error", err)
		return false
	}

	log.Info("query submitted", "service", "perplexity", "via", "enter")
	return true
}

/*
Poll triangulates completion from three signals per tick. The stable counter
increments while the answer length sits unchanged above MinStableLen and
resets on any change; completion fires either when generation stopped, the
answer cleared DoneLen, and the counter reached StableTicks, or earlier when
the related section appeared with at least RelatedLen of answer behind it.
*/
func (p *Perplexity) Poll(ctx context.Context, page Page) (PollOutcome, error) {
	maxTicks := p.config.MaxTicks
	if p.config.CaptureSubstring != "" {
		maxTicks = p.config.CaptureMaxTicks
	}

	pollJS := perplexityPollJS(p.config.AnswerSelectors, p.config.GeneratingSelectors, p.config.RelatedSelectors)

	var (
		prevLength int
		stable     int
	)

	outcome, err := runPoll(ctx, "perplexity", p.config.Tick, maxTicks, func(ctx context.Context) (bool, string, error) {
		value, err := page.Eval(ctx, pollJS)
		if err != nil {
			return false, "", err
		}

		length := value.Get("length").Int()
		generating := value.Get("generating").Bool()
		related := value.Get("related").Bool()

		if length == prevLength && length > p.config.MinStableLen {
			stable++
		} else {
			stable = 0
		}
		prevLength = length

		if !generating && length > p.config.DoneLen && stable >= p.config.StableTicks {
			return true, "stable", nil
		}

		if related && length > p.config.RelatedLen {
			return true, "related", nil
		}

		return false, "", nil
	})

	if err != nil {
		return outcome, err
	}

	switch outcome.Reason {
	case "stable":
		time.Sleep(p.config.SettleStable)
	case "related":
		time.Sleep(p.config.SettleRelated)
	}

	return outcome, nil
}

/*
Extract scrapes the rendered answer, sources, and related queries, then
checks the network capture. Related queries parsed out of the captured
stream are authoritative and supersede the DOM-derived list whenever the
capture produced any.
*/
func (p *Perplexity) Extract(ctx context.Context, page Page) any {
	value, err := page.Eval(ctx, perplexityCollectJS(p.config.AnswerSelectors, p.config.RelatedSelectors, p.config.MinAnswerLen))
	if err != nil {
		log.Error("extraction failed", "service", "perplexity", "error", err)
		return PerplexityData{Sources: []Link{}, RelatedQueries: []string{}, Error: err.Error()}
	}

	data := p.assemble(value)

	if body, ok := page.CaptureBody(ctx); ok {
		if captured := ParseRelatedQueries(body); len(captured) > 0 {
			log.Info("using related queries from captured stream", "service", "perplexity", "count", len(captured))
			data.RelatedQueries = capStrings(captured, p.config.RelatedLimit)
		}
	}

	log.Info("extraction complete", "service", "perplexity", "answer_len", len(data.Answer), "sources", len(data.Sources), "related", len(data.RelatedQueries))
	return data
}

func (p *Perplexity) assemble(value gson.JSON) PerplexityData {
	sources := make([]Link, 0)
	for _, link := range value.Get("links").Arr() {
		sources = append(sources, Link{
			Title: linkTitle(link.Get("title").Str(), link.Get("url").Str()),
			URL:   link.Get("url").Str(),
		})
	}
	sources = excludeDomains(sources, p.config.ExcludedDomains)
	sources = capLinks(dedupeLinks(sources), p.config.SourceLimit)

	related := make([]string, 0)
	for _, entry := range value.Get("related").Arr() {
		if text := strings.TrimSpace(entry.Str()); len(text) > p.config.RelatedMinLen {
			related = append(related, text)
		}
	}
	for _, entry := range value.Get("heuristic").Arr() {
		text := strings.TrimSpace(entry.Str())
		if !strings.Contains(text, "?") {
			continue
		}
		if len(text) < p.config.HeuristicMinLen || len(text) > p.config.HeuristicMaxLen {
			continue
		}
		related = append(related, text)
	}

	return PerplexityData{
		Answer:         truncateText(value.Get("answer").Str(), p.config.AnswerLimit),
		Sources:        sources,
		RelatedQueries: capStrings(dedupeStrings(related), p.config.RelatedLimit),
	}
}
