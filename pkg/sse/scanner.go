package sse

import (
	"bufio"
	"strings"
)

// Event represents a single Server-Sent Event frame.
type Event struct {
	ID    string
	Event string
	Data  []byte
}

/*
Scan parses a complete text/event-stream body that was captured after the
fact. The capture path fetches the response body once the answer has finished
rendering, so there is no live connection to manage; frames are split on
blank lines, multi-line data fields are joined with newlines, and comment
lines are dropped. A trailing frame without a terminating blank line is still
returned.
*/
func Scan(body string) []Event {
	var (
		events    []Event
		current   Event
		eventData strings.Builder
		inEvent   bool
	)

	flush := func() {
		if !inEvent {
			return
		}
		current.Data = []byte(eventData.String())
		events = append(events, current)
		current = Event{}
		eventData.Reset()
		inEvent = false
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		inEvent = true

		switch {
		case strings.HasPrefix(line, "id:"):
			current.ID = strings.TrimSpace(line[3:])
		case strings.HasPrefix(line, "event:"):
			current.Event = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			dataLine := strings.TrimPrefix(line, "data:")
			if eventData.Len() > 0 {
				eventData.WriteString("\n")
			}
			eventData.WriteString(strings.TrimPrefix(dataLine, " "))
		}
	}

	flush()
	return events
}

/*
JoinData concatenates the data payloads of every frame, newline separated.
Extraction regexes run over this joined view so a value split across frames
is still matched.
*/
func JoinData(events []Event) string {
	builder := &strings.Builder{}

	for _, event := range events {
		if len(event.Data) == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.Write(event.Data)
	}

	return builder.String()
}
