package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

/*
Local launches a Chromium on this machine and drives it over the same
Session contract as the remote provider. There is no server-side
fingerprinting here, so the launcher carries the usual anti-detection flags;
it exists for development and for environments where the cloud API is not
reachable.
*/
type Local struct {
	headless      bool
	proxy         string
	navTimeout    time.Duration
	challengeWait time.Duration
}

type LocalOption func(*Local)

// WithHeadful shows the browser window.
func WithHeadful() LocalOption {
	return func(p *Local) {
		p.headless = false
	}
}

// WithProxy routes browser traffic through a proxy URL.
func WithProxy(proxy string) LocalOption {
	return func(p *Local) {
		p.proxy = proxy
	}
}

// WithLocalChallengeWait overrides the post-navigation settle pause.
func WithLocalChallengeWait(d time.Duration) LocalOption {
	return func(p *Local) {
		p.challengeWait = d
	}
}

// NewLocal creates the local launcher provider.
func NewLocal(options ...LocalOption) *Local {
	provider := &Local{
		headless:      true,
		navTimeout:    DefaultNavTimeout,
		challengeWait: DefaultChallengeWait,
	}

	for _, option := range options {
		option(provider)
	}

	return provider
}

func (p *Local) Acquire(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	launch := launcher.New().
		Headless(p.headless).
		Leakless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))

	if p.proxy != "" {
		launch = launch.Proxy(p.proxy)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch local browser: %w", err)
	}

	session := &Session{
		ID:   uuid.NewString(),
		Kind: "local",
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to local browser: %w", err)
	}
	session.Browser = browser
	session.AddCloser("close-browser", browser.Close)

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		session.Release()
		return nil, fmt.Errorf("failed to open local page: %w", err)
	}
	session.Page = page
	session.AddCloser("close-page", page.Close)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warn("failed to set viewport, continuing anyway", "session", session.ID, "error", err)
	}

	if opts.InitialURL != "" {
		session.Navigate(ctx, opts.InitialURL, p.navTimeout)
	}

	time.Sleep(p.challengeWait)

	log.Info("local session started", "session", session.ID)
	return session, nil
}
