package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"queryfanout/pkg/browserbase"
)

/*
Browserbase provisions remote sessions through the cloud session API and
connects rod to the returned CDP endpoint. Fingerprinting, proxying, and
captcha solving all happen server-side; this provider only has to pick up
the first page and settle the anti-bot challenge.
*/
type Browserbase struct {
	client        *browserbase.Client
	creds         *browserbase.Credentials
	navTimeout    time.Duration
	challengeWait time.Duration
}

type BrowserbaseOption func(*Browserbase)

// WithChallengeWait overrides the post-navigation settle pause. Tests shrink
// it to keep acquisition fast.
func WithChallengeWait(d time.Duration) BrowserbaseOption {
	return func(p *Browserbase) {
		p.challengeWait = d
	}
}

// WithNavTimeout overrides the initial navigation deadline.
func WithNavTimeout(d time.Duration) BrowserbaseOption {
	return func(p *Browserbase) {
		p.navTimeout = d
	}
}

// NewBrowserbase creates the remote provider from loaded credentials.
func NewBrowserbase(client *browserbase.Client, creds *browserbase.Credentials, options ...BrowserbaseOption) *Browserbase {
	provider := &Browserbase{
		client:        client,
		creds:         creds,
		navTimeout:    DefaultNavTimeout,
		challengeWait: DefaultChallengeWait,
	}

	for _, option := range options {
		option(provider)
	}

	return provider
}

func (p *Browserbase) Acquire(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	remote, err := p.client.CreateSession(ctx, browserbase.NewSessionRequest(
		p.creds.ProjectID,
		p.creds.ExtensionID,
		browserbase.Viewport{Width: opts.Width, Height: opts.Height},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create remote session: %w", err)
	}

	session := &Session{
		ID:        remote.ID,
		Kind:      "browserbase",
		Inspector: browserbase.InspectorURL(remote.ID),
	}

	session.AddCloser("release-remote-session", func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return p.client.StopSession(stopCtx, p.creds.ProjectID, remote.ID)
	})

	browser := rod.New().Context(ctx).ControlURL(remote.ConnectURL)
	if err := browser.Connect(); err != nil {
		session.Release()
		return nil, fmt.Errorf("failed to connect to remote session: %w", err)
	}
	session.Browser = browser
	session.AddCloser("close-browser", browser.Close)

	page, err := firstPage(browser)
	if err != nil {
		session.Release()
		return nil, fmt.Errorf("failed to open remote page: %w", err)
	}
	session.Page = page
	session.AddCloser("close-page", page.Close)

	// Some OAuth-gated flows stall on a permission prompt nobody can click.
	grant := proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeGeolocation,
			proto.BrowserPermissionTypeNotifications,
		},
	}
	if err := grant.Call(browser); err != nil {
		log.Warn("failed to grant permissions, continuing anyway", "session", session.ID, "error", err)
	}

	if opts.InitialURL != "" {
		session.Navigate(ctx, opts.InitialURL, p.navTimeout)
	}

	log.Info("waiting for any anti-bot challenges to complete", "session", session.ID)
	time.Sleep(p.challengeWait)

	log.Info("session started", "url", session.Inspector)
	return session, nil
}

// firstPage picks up the page the remote session pre-opened, creating one
// only when the context came up empty.
func firstPage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, err
	}

	if len(pages) > 0 {
		return pages[0], nil
	}

	return browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}
