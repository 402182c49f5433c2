package errors

import (
	"fmt"
	"strings"
)

/*
ConfigError reports missing or unusable external configuration, such as the
remote browser credentials. It is raised before any session is opened and is
always fatal to the operation that needed the configuration.
*/
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

/*
SessionClosedError wraps an underlying automation error whose text indicates
the page, context, or browser went away mid-operation. Unlike transient
evaluation errors, this one is unrecoverable for the in-flight service query.
*/
type SessionClosedError struct {
	Op  string
	Err error
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("browser session was closed unexpectedly during %s: %v", e.Op, e.Err)
}

func (e *SessionClosedError) Unwrap() error {
	return e.Err
}

/*
UnknownServiceError is returned when a requested service key has no entry in
the service registry. It short-circuits before any session is acquired.
*/
type UnknownServiceError struct {
	Key string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("Unknown service: %s", e.Key)
}

/*
UnknownProviderError is returned when the agent driver is asked for an LLM
backend it does not know.
*/
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.Name)
}

// closedMarkers are the error-text fragments that mean the browser, page, or
// devtools connection is gone. The first entry is the exact phrase surfaced
// by the upstream automation layer; the rest are the transport-level variants
// rod produces when the websocket drops.
var closedMarkers = []string{
	"target page, context or browser has been closed",
	"browser has been closed",
	"page has been closed",
	"session with given id not found",
	"use of closed network connection",
	"websocket: close",
	"cdp connection closed",
}

/*
IsSessionClosed reports whether err (or anything it wraps) carries the
closed-browser signature. Pollers use this to stop treating failures as
transient.
*/
func IsSessionClosed(err error) bool {
	if err == nil {
		return false
	}

	var closed *SessionClosedError
	if As(err, &closed) {
		return true
	}

	text := strings.ToLower(err.Error())

	for _, marker := range closedMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}

	return false
}
