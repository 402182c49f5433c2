package browser

import (
	"context"
	"time"
)

const (
	// DefaultWidth and DefaultHeight match the desktop profile the target
	// sites are tuned against.
	DefaultWidth  = 1440
	DefaultHeight = 900

	// DefaultNavTimeout bounds the initial navigation; challenge pages can
	// hold the load event hostage for a long time.
	DefaultNavTimeout = 120 * time.Second

	// DefaultChallengeWait is the unconditional pause after the initial
	// navigation that lets an anti-bot challenge resolve itself.
	DefaultChallengeWait = 10 * time.Second
)

// Options configures a session acquisition.
type Options struct {
	Width      int
	Height     int
	InitialURL string
}

// DefaultOptions returns the standard desktop viewport with no initial
// navigation.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight}
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

/*
Provider acquires live browser sessions. The remote implementation
provisions them through the cloud session API; the local one launches a
Chromium on this machine. Callers own the returned session and must call
Release on every exit path.
*/
type Provider interface {
	Acquire(ctx context.Context, opts Options) (*Session, error)
}
