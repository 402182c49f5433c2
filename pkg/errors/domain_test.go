package errors

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIsSessionClosed(t *testing.T) {
	Convey("Given errors produced during page automation", t, func() {
		Convey("The upstream closed-browser phrase is recognized", func() {
			err := fmt.Errorf("eval failed: Target page, context or browser has been closed")
			So(IsSessionClosed(err), ShouldBeTrue)
		})

		Convey("Transport-level websocket drops are recognized", func() {
			err := fmt.Errorf("read tcp 127.0.0.1:9222: use of closed network connection")
			So(IsSessionClosed(err), ShouldBeTrue)
		})

		Convey("A wrapped SessionClosedError is recognized through the chain", func() {
			inner := &SessionClosedError{Op: "poll", Err: fmt.Errorf("gone")}
			err := fmt.Errorf("tick 42: %w", inner)
			So(IsSessionClosed(err), ShouldBeTrue)
		})

		Convey("Ordinary evaluation errors are not", func() {
			So(IsSessionClosed(fmt.Errorf("selector matched nothing")), ShouldBeFalse)
			So(IsSessionClosed(nil), ShouldBeFalse)
		})
	})
}

func TestConfigError(t *testing.T) {
	Convey("Given a ConfigError listing missing keys", t, func() {
		err := &ConfigError{Missing: []string{"BROWSERBASE_API_KEY", "BROWSERBASE_PROJECT_ID"}}

		Convey("The message names every missing key", func() {
			So(err.Error(), ShouldContainSubstring, "BROWSERBASE_API_KEY")
			So(err.Error(), ShouldContainSubstring, "BROWSERBASE_PROJECT_ID")
		})
	})
}

func TestUnknownServiceError(t *testing.T) {
	Convey("Given an unknown service key", t, func() {
		err := &UnknownServiceError{Key: "bingchat"}

		Convey("The message carries the canonical prefix and the key", func() {
			So(err.Error(), ShouldContainSubstring, "Unknown service")
			So(err.Error(), ShouldContainSubstring, "bingchat")
		})
	})
}
