package sse

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScan(t *testing.T) {
	Convey("Given a captured event-stream body", t, func() {
		body := "event: message\nid: 1\ndata: {\"text\":\"Paris is\"}\n\n" +
			": keepalive\n\n" +
			"event: message\ndata: first\ndata: second\n\n" +
			"data: trailing frame without blank line"

		Convey("When scanning it", func() {
			events := Scan(body)

			Convey("Every frame is returned, including the unterminated tail", func() {
				So(len(events), ShouldEqual, 3)
			})

			Convey("Field parsing matches the wire format", func() {
				So(events[0].Event, ShouldEqual, "message")
				So(events[0].ID, ShouldEqual, "1")
				So(string(events[0].Data), ShouldEqual, `{"text":"Paris is"}`)
			})

			Convey("Multi-line data fields are joined with newlines", func() {
				So(string(events[1].Data), ShouldEqual, "first\nsecond")
			})

			Convey("Comment lines never become frames", func() {
				for _, event := range events {
					So(string(event.Data), ShouldNotContainSubstring, "keepalive")
				}
			})
		})
	})
}

func TestScanCRLF(t *testing.T) {
	Convey("Given a body with CRLF line endings", t, func() {
		events := Scan("data: one\r\n\r\ndata: two\r\n\r\n")

		Convey("Frames parse the same as LF bodies", func() {
			So(len(events), ShouldEqual, 2)
			So(string(events[0].Data), ShouldEqual, "one")
			So(string(events[1].Data), ShouldEqual, "two")
		})
	})
}

func TestJoinData(t *testing.T) {
	Convey("Given scanned frames", t, func() {
		events := Scan("data: {\"related_queries\": [\"a\",\n\ndata: \"b\"]}\n\n")

		Convey("JoinData yields one searchable view across frames", func() {
			joined := JoinData(events)
			So(joined, ShouldContainSubstring, `related_queries`)
			So(joined, ShouldContainSubstring, `"b"]}`)
		})
	})
}
