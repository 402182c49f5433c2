package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"queryfanout/pkg/browser"
)

/*
ChatGPTConfig holds every selector list and tuning constant for the ChatGPT
adapter. Both target sites redesign their markup regularly, so re-tuning is
an expected maintenance operation and nothing here is inlined.
*/
type ChatGPTConfig struct {
	InputSelectors        []string
	SearchToggleSelectors []string
	StatusSelectors       []string
	OwnDomains            []string

	SelectorTimeout time.Duration
	Tick            time.Duration
	MaxTicks        int
	Settle          time.Duration

	ResponseLimit int
	QueryLimit    int
	SourceLimit   int
}

// DefaultChatGPTConfig returns the production tuning.
func DefaultChatGPTConfig() ChatGPTConfig {
	return ChatGPTConfig{
		InputSelectors: []string{
			"#prompt-textarea",
			`textarea[placeholder*="Ask anything"]`,
			`textarea[data-testid="prompt-textarea"]`,
			`div[contenteditable="true"]`,
		},
		SearchToggleSelectors: []string{
			`button[aria-label*="Search"]`,
			`[data-testid="composer-button-search"]`,
			`button[aria-label*="web search"]`,
		},
		StatusSelectors: []string{
			`[class*="SearchStatus"]`,
			`[class*="search-status"]`,
			`[aria-label*="search"]`,
			`[data-testid*="search"]`,
			`button[aria-label*="Searched"]`,
		},
		OwnDomains:      []string{"chatgpt.com", "openai.com"},
		SelectorTimeout: 3 * time.Second,
		Tick:            time.Second,
		MaxTicks:        120,
		Settle:          2 * time.Second,
		ResponseLimit:   2000,
		QueryLimit:      10,
		SourceLimit:     10,
	}
}

// ChatGPTData is the extraction payload for the chat-assistant service.
type ChatGPTData struct {
	Queries  []string `json:"queries"`
	Response string   `json:"response"`
	Sources  []Link   `json:"sources"`
	Error    string   `json:"error,omitempty"`
}

var (
	searchedSitesPattern = regexp.MustCompile(`(?i)Searched\s+\d+\s+sites?`)

	// Three alternative shapes the response text announces its web
	// sub-queries in.
	subQueryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:searched for|searching for|I'll search for)[:\s]+["']([^"']+)["']`),
		regexp.MustCompile(`(?i)(?:query|queries)[:\s]+["']([^"']+)["']`),
		regexp.MustCompile(`\[Search:\s*([^\]]+)\]`),
	}
)

// ChatGPT is the chat-assistant adapter.
type ChatGPT struct {
	config ChatGPTConfig
}

func NewChatGPT(config ChatGPTConfig) *ChatGPT {
	return &ChatGPT{config: config}
}

func (c *ChatGPT) Describe() Descriptor {
	return Descriptor{Key: "chatgpt", Name: "ChatGPT", URL: "https://chatgpt.com/"}
}

// Prepare is a no-op for ChatGPT; there is no network capture and no
// interstitial to clear.
func (c *ChatGPT) Prepare(ctx context.Context, session *browser.Session) error {
	return nil
}

/*
Submit toggles web-search mode when the control can be found, then fills the
query and sends it with a synthesized Enter. The toggle is best effort: the
button moves around the composer frequently, and a query without web search
still produces an extractable response.
*/
func (c *ChatGPT) Submit(ctx context.Context, session *browser.Session, query string) bool {
	if clickFirst(ctx, session, c.config.SearchToggleSelectors, c.config.SelectorTimeout) {
		log.Info("enabled web search mode", "service", "chatgpt")
	} else {
		log.Warn("web search toggle not found, continuing without it", "service", "chatgpt")
	}

	field := findFirst(ctx, session, c.config.InputSelectors, c.config.SelectorTimeout)
	if field == nil {
		log.Error("query input not found", "service", "chatgpt", "session", session.ID)
		return false
	}

	if err := field.Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.Error("failed to focus query input", "service", "chatgpt", "error", err)
		return false
	}

	if err := field.Input(query); err != nil {
		log.Error("failed to fill query", "service", "chatgpt", "error", err)
		return false
	}

	if err := session.Page.Context(ctx).Keyboard.Press(input.Enter); err != nil {
		log.Error("failed to submit query", "service", "chatgpt", "error", err)
		return false
	}

	log.Info("query submitted", "service", "chatgpt")
	return true
}

// Poll waits until an assistant message exists and the stop control has
// disappeared, then settles briefly for trailing rendering.
func (c *ChatGPT) Poll(ctx context.Context, page Page) (PollOutcome, error) {
	outcome, err := runPoll(ctx, "chatgpt", c.config.Tick, c.config.MaxTicks, func(ctx context.Context) (bool, string, error) {
		value, err := page.Eval(ctx, chatgptPollJS)
		if err != nil {
			return false, "", err
		}

		if value.Get("hasResponse").Bool() && !value.Get("isGenerating").Bool() {
			return true, "complete", nil
		}

		return false, "", nil
	})

	if err != nil {
		return outcome, err
	}

	if outcome.Done {
		time.Sleep(c.config.Settle)
	}

	return outcome, nil
}

// Extract scrapes the rendered response. Failures never propagate; they
// come back as a payload with the error field set.
func (c *ChatGPT) Extract(ctx context.Context, page Page) any {
	value, err := page.Eval(ctx, chatgptCollectJS(c.config.StatusSelectors))
	if err != nil {
		log.Error("extraction failed", "service", "chatgpt", "error", err)
		return ChatGPTData{Queries: []string{}, Sources: []Link{}, Error: err.Error()}
	}

	data := c.assemble(value)
	log.Info("extraction complete", "service", "chatgpt", "queries", len(data.Queries), "sources", len(data.Sources))
	return data
}

/*
assemble turns the raw collected material into the payload: detected
sub-queries from status texts, the searched-N-sites marker, and the three
response-text patterns; sources from citation anchors first, then all
outbound links, minus the service's own domains.
*/
func (c *ChatGPT) assemble(value gson.JSON) ChatGPTData {
	response := value.Get("response").Str()

	queries := make([]string, 0)
	for _, status := range value.Get("statusTexts").Arr() {
		text := strings.TrimSpace(status.Str())
		if text == "" {
			continue
		}
		if strings.Contains(text, "Searched") || strings.Contains(text, "sites") {
			queries = append(queries, text)
		}
	}

	if match := searchedSitesPattern.FindString(value.Get("bodyText").Str()); match != "" {
		queries = append(queries, match)
	}

	for _, pattern := range subQueryPatterns {
		for _, match := range pattern.FindAllStringSubmatch(response, -1) {
			if candidate := strings.TrimSpace(match[1]); len(candidate) > 3 {
				queries = append(queries, candidate)
			}
		}
	}

	sources := make([]Link, 0)
	for _, citation := range value.Get("citations").Arr() {
		sources = append(sources, Link{
			Title: linkTitle(citation.Get("title").Str(), "Source"),
			URL:   citation.Get("url").Str(),
		})
	}
	for _, link := range value.Get("links").Arr() {
		sources = append(sources, Link{
			Title: linkTitle(link.Get("title").Str(), link.Get("url").Str()),
			URL:   link.Get("url").Str(),
		})
	}

	sources = excludeDomains(sources, c.config.OwnDomains)
	sources = capLinks(dedupeLinks(sources), c.config.SourceLimit)

	return ChatGPTData{
		Queries:  capStrings(dedupeStrings(queries), c.config.QueryLimit),
		Response: truncateText(response, c.config.ResponseLimit),
		Sources:  sources,
	}
}
