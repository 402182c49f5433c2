package service

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"queryfanout/pkg/fanout"
	"queryfanout/pkg/services"
)

/*
SlackNotifier posts a run summary to a channel when a fanout finishes.
It hangs off the runner as an observer, so a broken Slack config never
affects the run itself.
*/
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string, options ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token, options...),
		channel: channel,
	}
}

func (notifier *SlackNotifier) ServiceStarted(desc services.Descriptor) {}

func (notifier *SlackNotifier) ServiceFinished(result fanout.QueryResult) {}

func (notifier *SlackNotifier) RunFinished(results []fanout.QueryResult) {
	if len(results) == 0 {
		return
	}

	_, _, err := notifier.client.PostMessage(
		notifier.channel,
		slack.MsgOptionText(summarize(results), false),
	)

	if err != nil {
		log.Error("failed to post run summary to slack", "error", err)
	}
}

func summarize(results []fanout.QueryResult) string {
	succeeded := 0
	failed := []string{}

	for _, result := range results {
		if result.Success {
			succeeded++
			continue
		}
		failed = append(failed, result.Service)
	}

	text := fmt.Sprintf(
		"Query fanout finished: %d/%d services succeeded for %q",
		succeeded, len(results), results[0].Query,
	)

	if len(failed) > 0 {
		text += fmt.Sprintf(" (failed: %s)", strings.Join(failed, ", "))
	}

	return text
}
