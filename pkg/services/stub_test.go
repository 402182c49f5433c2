package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ysmood/gson"
)

/*
stubPage scripts the DOM surface pollers and extractors run against. Poll
evaluations consume the scripted tick results in order, repeating the last
one when the script runs out; collect evaluations (recognized by the raw
material they gather) always return the collect fixture.
*/
type stubPage struct {
	polls   []gson.JSON
	collect gson.JSON
	evalErr error
	body    string
	hasBody bool

	pollCalls int
}

func pollValue(fields map[string]any) gson.JSON {
	return gson.New(fields)
}

func (s *stubPage) Eval(ctx context.Context, js string) (gson.JSON, error) {
	if s.evalErr != nil {
		return gson.New(nil), s.evalErr
	}

	if strings.Contains(js, "citations") || strings.Contains(js, "heuristic") {
		return s.collect, nil
	}

	if len(s.polls) == 0 {
		return gson.New(nil), fmt.Errorf("no scripted poll result")
	}

	s.pollCalls++
	if s.pollCalls <= len(s.polls) {
		return s.polls[s.pollCalls-1], nil
	}
	return s.polls[len(s.polls)-1], nil
}

func (s *stubPage) HTML(ctx context.Context) (string, error) {
	return "<html></html>", nil
}

func (s *stubPage) CaptureBody(ctx context.Context) (string, bool) {
	return s.body, s.hasBody
}
